package advisor

import (
	"fmt"

	"google.golang.org/genai"
)

func suggestionPrompt(query string) string {
	return fmt.Sprintf(`You are "TradeWise AI", an expert electronics shopping assistant.
A user is looking for an electronic device. Based on their query, recommend 3 to 6 suitable products.
The estimated price must be in Indian Rupees (INR).
For each product, provide its name, category, key specifications, a brief reason for the recommendation, and an estimated price.
User Query: "%s"`, query)
}

func imagePrompt(productName string) string {
	return fmt.Sprintf(`Generate a professional, high-fidelity studio product photograph of the following electronic device: %s.
The device should be the central focus, angled slightly. The background should be a clean, minimalist, light gray gradient.
The lighting should be soft and even, highlighting the product's design and materials. No text or logos in the background.`, productName)
}

func buyingOptionsPrompt(productName string) string {
	return fmt.Sprintf(`Based on the product name "%s", find the official product page or links to major online retailers where this product can be purchased. Use Google Search to find this information.`, productName)
}

// productListSchema is the response schema for suggestions: an array of products
// with every field required.
func productListSchema() *genai.Schema {
	minSpecs, maxSpecs := int64(3), int64(5)

	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name": {
					Type:        genai.TypeString,
					Description: "The full brand and model name of the electronic device.",
				},
				"category": {
					Type:        genai.TypeString,
					Description: "The category of the electronic device (e.g., Laptop, Smartphone, Camera, Headphones).",
				},
				"key_specs": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					MinItems:    &minSpecs,
					MaxItems:    &maxSpecs,
					Description: "An array of 3-5 most important technical specifications relevant to the user's query.",
				},
				"reasoning": {
					Type:        genai.TypeString,
					Description: "A brief, one or two-sentence explanation of why this product is a good match for the user's request.",
				},
				"estimated_price": {
					Type:        genai.TypeString,
					Description: "The estimated retail price in Indian Rupees (INR), formatted as '₹XXXX'.",
				},
			},
			Required:         []string{"name", "category", "key_specs", "reasoning", "estimated_price"},
			PropertyOrdering: []string{"name", "category", "key_specs", "reasoning", "estimated_price"},
		},
	}
}
