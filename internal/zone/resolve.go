package zone

// IsAU reports whether address resolves to the AU country code.
func IsAU(address string) bool {
	country, ok := ExtractCountry(address)
	return ok && country == "AU"
}

// RequireCountry extracts a country code, returning ErrAddressUnparsable
// when the caller requires one and neither lookup path succeeded.
func RequireCountry(address string) (string, error) {
	country, ok := ExtractCountry(address)
	if !ok {
		return "", ErrAddressUnparsable
	}
	return country, nil
}
