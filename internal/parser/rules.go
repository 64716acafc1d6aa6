package parser

import "strings"

// paymentWords mark a description as a payment toward the card balance,
// regardless of which statement section the line appeared in (CIBC
// wordings).
var paymentWords = []string{
	"PAYMENT",
	"PAYMENT - THANK YOU",
	"ONLINE PAYMENT",
	"MOBILE PAYMENT",
	"E-PMT",
}

// categoryRule corrects or fills in a merchant category when its matcher
// occurs in the description.
type categoryRule struct {
	match    string
	category string
}

// categoryRules is an ordered, first-match-wins list of high-precision
// overrides for obvious mislabels. Fixed configuration, not editable at
// runtime.
var categoryRules = []categoryRule{
	{"DENTAL", "Health"},
	{"DENTIST", "Health"},
	{"PHARMACY", "Health"},
	{"UBER EATS", "Restaurants"},
	{"PIZZA", "Restaurants"},
	{"STARBUCKS", "Restaurants"},
	{"TIM HORTONS", "Restaurants"},
	{"LOBLAW", "Grocery"},
	{"WALMART", "Grocery"},
	{"COSTCO", "Grocery"},
	{"NETFLIX", "Subscriptions"},
	{"SPOTIFY", "Subscriptions"},
}

// looksLikePayment reports whether a description contains any payment
// keyword. Matching is case-insensitive.
func looksLikePayment(desc string) bool {
	d := strings.ToUpper(desc)
	for _, w := range paymentWords {
		if strings.Contains(d, w) {
			return true
		}
	}
	return false
}

// applyCategoryRules returns the label of the first rule whose matcher
// occurs in the description, or the current category unchanged when no
// rule matches. The rule table always wins over a positionally extracted
// category.
func applyCategoryRules(description, current string) string {
	if description == "" {
		return current
	}
	d := strings.ToUpper(description)
	for _, r := range categoryRules {
		if strings.Contains(d, r.match) {
			return r.category
		}
	}
	return current
}
