// Package synthetic generates deterministic placeholder customer data for the
// demographics widget when the backend cannot supply it. The record is a pure
// function of the customer identifier: same id, same record, always.
package synthetic

import (
	"fmt"
	"hash/fnv"

	"github.com/harborcx/agentdesk-backend/internal/domain"
)

var firstNames = []string{
	"Aisha", "Ben", "Carmen", "Diego", "Elena", "Farid", "Grace", "Hugo",
	"Imani", "Jonas", "Keiko", "Liam", "Mera", "Noah", "Olivia", "Priya",
}

var lastNames = []string{
	"Adeyemi", "Bauer", "Castillo", "Dubois", "Eriksen", "Fischer", "Garcia",
	"Haddad", "Ivanova", "Jensen", "Kowalski", "Lindqvist",
}

var genders = []string{"female", "male", "nonbinary"}

var cities = []struct {
	City   string
	Region string
}{
	{"Leeds", "West Yorkshire"},
	{"Manchester", "Greater Manchester"},
	{"Bristol", "South West"},
	{"Glasgow", "Scotland"},
	{"Cardiff", "Wales"},
	{"Norwich", "East of England"},
	{"Sheffield", "South Yorkshire"},
	{"Brighton", "South East"},
}

// Demographics derives a stable synthetic record from the customer id.
func Demographics(customerID string) domain.CustomerRecord {
	h := fnv.New64a()
	_, _ = h.Write([]byte(customerID))
	seed := h.Sum64()

	first := firstNames[seed%uint64(len(firstNames))]
	last := lastNames[(seed>>8)%uint64(len(lastNames))]
	gender := genders[(seed>>16)%uint64(len(genders))]
	loc := cities[(seed>>24)%uint64(len(cities))]

	return domain.CustomerRecord{
		CustomerID: customerID,
		Name:       first + " " + last,
		Gender:     gender,
		City:       loc.City,
		Region:     loc.Region,
		Postcode:   fmt.Sprintf("%c%c%d %d%c%c",
			'A'+rune((seed>>32)%20), 'A'+rune((seed>>36)%20),
			1+(seed>>40)%9, 1+(seed>>44)%9,
			'A'+rune((seed>>48)%20), 'A'+rune((seed>>52)%20)),
	}
}
