package controllers

import (
	"encoding/json"
	"strings"

	"github.com/Endry199/jpstore/apperrors"
	"github.com/Endry199/jpstore/models"
)

var requiredFields = []string{
	models.FieldFinalPrice,
	models.FieldCurrency,
	models.FieldPaymentMethod,
	models.FieldEmail,
	models.FieldCartDetails,
}

// ValidateSubmission checks the required fields in order, then parses the
// cart into sub.Cart.
func ValidateSubmission(sub *models.Submission) error {
	for _, field := range requiredFields {
		if strings.TrimSpace(sub.Get(field)) == "" {
			return apperrors.MissingField(field)
		}
	}

	if _, err := models.ParseAmount(sub.Get(models.FieldFinalPrice)); err != nil {
		return apperrors.InvalidField(models.FieldFinalPrice, err)
	}

	var cart []models.CartItem
	if err := json.Unmarshal([]byte(sub.Get(models.FieldCartDetails)), &cart); err != nil {
		return apperrors.MalformedCart(err)
	}
	if len(cart) == 0 {
		return apperrors.EmptyCart()
	}
	sub.Cart = cart
	return nil
}
