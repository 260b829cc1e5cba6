package service

import (
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/internal/validation"
)

const (
	maxImageSizeKB = 2048
	maxImageSize   = maxImageSizeKB * 1024
	imagePrefix    = "products"
)

var (
	decimalZero      = decimal.Zero
	allowedImageExts = []string{"jpeg", "png", "jpg", "gif", "svg", "webp"}
	// decimal(15,2) holds at most 13 integer digits.
	maxPrice = decimal.New(1, 13)
)

type productInput struct {
	Name       string `json:"name" validate:"required,max=255"`
	SKU        string `json:"sku" validate:"required,max=255"`
	Price      string `json:"price" validate:"required,numeric"`
	Categories string `json:"categories" validate:"required"`
}

func parsePrice(raw string, errs *validation.Errors) decimal.Decimal {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		errs.Add("price", "numeric", "The price field must be a number.")
		return decimal.Zero
	}
	if price.Abs().GreaterThanOrEqual(maxPrice) {
		errs.Add("price", "max", "The price field must be less than 10000000000000.")
		return decimal.Zero
	}
	return price.Round(2)
}

func validateImage(img *domain.FileUpload, errs *validation.Errors) {
	if img == nil {
		return
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(img.Filename)), ".")
	allowed := false
	for _, candidate := range allowedImageExts {
		if ext == candidate {
			allowed = true
			break
		}
	}
	if ct := strings.ToLower(img.ContentType); ct != "" && !strings.HasPrefix(ct, "image/") {
		allowed = false
	}
	if !allowed {
		errs.Add("image", "mimes", "The image field must be a file of type: "+strings.Join(allowedImageExts, ", ")+".")
		return
	}
	if img.Size > maxImageSize {
		errs.Add("image", "max", "The image field must not be greater than 2048 kilobytes.")
	}
}

func skuTakenError(errs *validation.Errors) {
	errs.Add("sku", "unique", "The sku has already been taken.")
}

func mergeErrors(dst *validation.Errors, err error) error {
	if err == nil {
		return nil
	}
	vErr, ok := validation.As(err)
	if !ok {
		return err
	}
	dst.Fields = append(dst.Fields, vErr.Fields...)
	return nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

func optionalText(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
