package checkout

import (
	"regexp"
	"strings"
)

type ShippingAddress struct {
	ID            string `json:"id,omitempty"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	StreetAddress string `json:"street_address"`
	Apartment     string `json:"apartment,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	IsDefault     bool   `json:"is_default,omitempty"`
	SaveToProfile bool   `json:"save_to_profile,omitempty"`
}

// FieldErrors maps address field name to a message, one entry per violated
// field.
type FieldErrors map[string]string

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[\d\s+\-()]{7,20}$`)
)

// Validate checks every rule independently and reports all violations at
// once.
func (a ShippingAddress) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(a.FirstName) == "" {
		errs["first_name"] = "First name is required"
	}
	if strings.TrimSpace(a.LastName) == "" {
		errs["last_name"] = "Last name is required"
	}
	switch {
	case strings.TrimSpace(a.Email) == "":
		errs["email"] = "Email is required"
	case !emailRe.MatchString(a.Email):
		errs["email"] = "Please enter a valid email"
	}
	switch {
	case strings.TrimSpace(a.Phone) == "":
		errs["phone"] = "Phone number is required"
	case !phoneRe.MatchString(a.Phone):
		errs["phone"] = "Please enter a valid phone number"
	}
	if strings.TrimSpace(a.StreetAddress) == "" {
		errs["street_address"] = "Street address is required"
	}
	if strings.TrimSpace(a.City) == "" {
		errs["city"] = "City is required"
	}
	if strings.TrimSpace(a.State) == "" {
		errs["state"] = "State/Province is required"
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		errs["postal_code"] = "Postal code is required"
	}
	if strings.TrimSpace(a.Country) == "" {
		errs["country"] = "Country is required"
	}
	return errs
}

// AddressPatch is a partial update; nil fields are left untouched.
type AddressPatch struct {
	FirstName     *string `json:"first_name,omitempty"`
	LastName      *string `json:"last_name,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	StreetAddress *string `json:"street_address,omitempty"`
	Apartment     *string `json:"apartment,omitempty"`
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	PostalCode    *string `json:"postal_code,omitempty"`
	Country       *string `json:"country,omitempty"`
	SaveToProfile *bool   `json:"save_to_profile,omitempty"`
}

func (p AddressPatch) apply(a *ShippingAddress) {
	if p.FirstName != nil {
		a.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		a.LastName = *p.LastName
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.StreetAddress != nil {
		a.StreetAddress = *p.StreetAddress
	}
	if p.Apartment != nil {
		a.Apartment = *p.Apartment
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.State != nil {
		a.State = *p.State
	}
	if p.PostalCode != nil {
		a.PostalCode = *p.PostalCode
	}
	if p.Country != nil {
		a.Country = *p.Country
	}
	if p.SaveToProfile != nil {
		a.SaveToProfile = *p.SaveToProfile
	}
}
