package controllers

import (
	"github.com/go-playground/validator/v10"
	"github.com/velora-shop/velora/app/models"
)

var validate = validator.New()

func customerFromRequest(req *checkoutCallbackRequest) models.Customer {
	return models.Customer{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		City:     req.City,
		Country:  req.Country,
	}
}
