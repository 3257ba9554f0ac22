package orders

import (
	"strconv"
	"strings"
)

type Address struct {
	City        string `json:"city"`
	District    string `json:"district"`
	SubDistrict string `json:"sub-district"`
	Street      string `json:"street"`
}

// String aplatit l'adresse pour l'affichage : "ville, district, sous-district, rue".
func (a Address) String() string {
	return strings.Join([]string{a.City, a.District, a.SubDistrict, a.Street}, ", ")
}

func (a Address) complete() bool {
	for _, part := range []string{a.City, a.District, a.SubDistrict, a.Street} {
		if strings.TrimSpace(part) == "" {
			return false
		}
	}
	return true
}

type CreateOrderInput struct {
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phoneNumber"`
	Address     *Address `json:"address"`
}

func (in CreateOrderInput) normalized() CreateOrderInput {
	out := CreateOrderInput{
		Name:        strings.TrimSpace(in.Name),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	}
	if in.Address != nil {
		out.Address = &Address{
			City:        strings.TrimSpace(in.Address.City),
			District:    strings.TrimSpace(in.Address.District),
			SubDistrict: strings.TrimSpace(in.Address.SubDistrict),
			Street:      strings.TrimSpace(in.Address.Street),
		}
	}
	return out
}

// validate vérifie les champs obligatoires et retourne l'entrée nettoyée.
func (in CreateOrderInput) validate() (CreateOrderInput, error) {
	n := in.normalized()
	if n.Name == "" || n.Address == nil || !n.Address.complete() || !ValidPhoneNumber(n.PhoneNumber) {
		return n, validationError(MsgInvalidInput)
	}
	return n, nil
}

// ValidPhoneNumber accepte un nombre strictement positif, avec un "+"
// initial et des espaces optionnels.
func ValidPhoneNumber(phone string) bool {
	digits := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(phone), "+"), " ", "")
	if digits == "" {
		return false
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	return err == nil && n > 0
}
