package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"storefront-client/internal/domain"

	validatorv10 "github.com/go-playground/validator/v10"
)

// newCheckoutValidator returns a validator with the checkout struct-level
// rules registered. maxQuantity is the per-line ceiling.
func newCheckoutValidator(maxQuantity int) *validatorv10.Validate {
	v := validatorv10.New()

	// Report json names so field errors line up with the UI form.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(func(sl validatorv10.StructLevel) {
		checkoutStructValidation(sl, maxQuantity)
	}, CheckoutRequest{})

	return v
}

// checkoutStructValidation checks the rules a tag cannot express: the address
// belongs to the user, and every line is within [1, maxQuantity].
func checkoutStructValidation(sl validatorv10.StructLevel, maxQuantity int) {
	req := sl.Current().Interface().(CheckoutRequest)

	if req.AddressID != "" && len(req.Addresses) > 0 {
		known := false
		for _, a := range req.Addresses {
			if a.ID == req.AddressID {
				known = true
				break
			}
		}
		if !known {
			sl.ReportError(req.AddressID, "addressId", "AddressID", "known_address", "selected address no longer exists")
		}
	}

	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d].quantity", i)
		switch {
		case item.Quantity > maxQuantity:
			sl.ReportError(item.Quantity, field, "Quantity", "max_quantity",
				fmt.Sprintf("%s: quantity %d exceeds the maximum of %d", itemLabel(item), item.Quantity, maxQuantity))
		case item.Quantity < 1:
			sl.ReportError(item.Quantity, field, "Quantity", "min_quantity",
				fmt.Sprintf("%s: quantity must be at least 1", itemLabel(item)))
		}
	}
}

func itemLabel(item domain.CartLineItem) string {
	if item.Name != "" {
		return item.Name
	}
	return item.ProductID
}

// toValidationError flattens validator errors into the domain field list.
func toValidationError(err error) error {
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := &domain.ValidationError{}
	for _, fe := range ve {
		out.Fields = append(out.Fields, domain.FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return out
}

// fieldPath drops the struct name from the namespace: CheckoutRequest.items[0].productId -> items[0].productId.
func fieldPath(fe validatorv10.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "max_quantity", "min_quantity", "known_address":
		return fe.Param()
	case "required":
		switch fe.Field() {
		case "addressId":
			return "select a delivery address"
		case "paymentMethod":
			return "select a payment method"
		case "items":
			return "cart is empty"
		}
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min":
		if fe.Field() == "items" {
			return "cart is empty"
		}
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
