package services

import (
	"time"

	"github.com/grambudget/grambudget/internal/models"
)

// FallbackNews returns the curated headlines served when the news API is not configured or fails.
// Publication dates are spread one day apart ending at now.
func FallbackNews(now time.Time) []models.NewsArticle {
	day := 24 * time.Hour
	return []models.NewsArticle{
		{
			Title:       "PM Kisan Samman Nidhi: 18th Installment Released for Farmers",
			Description: "The Government of India has released the 18th installment of PM Kisan Samman Nidhi, benefiting over 9.5 crore farmers across the country with direct bank transfers.",
			URL:         "https://pmkisan.gov.in",
			PublishedAt: now,
			Source:      models.NewsSource{Name: "Government of India", URL: "https://india.gov.in"},
		},
		{
			Title:       "Union Budget 2026: Increased Allocation for Rural Development",
			Description: "The Finance Ministry has announced a 15% increase in rural development allocation, with focus on Gram Panchayat infrastructure, MGNREGA, and drinking water supply projects.",
			URL:         "https://www.indiabudget.gov.in",
			PublishedAt: now.Add(-1 * day),
			Source:      models.NewsSource{Name: "Ministry of Finance", URL: "https://finmin.nic.in"},
		},
		{
			Title:       "MGNREGA Wages Revised: New Rates Effective April 2026",
			Description: "The Ministry of Rural Development has revised MGNREGA wage rates across all states, with average increase of 5-7%. The new rates aim to benefit over 6 crore rural households.",
			URL:         "https://nrega.nic.in",
			PublishedAt: now.Add(-2 * day),
			Source:      models.NewsSource{Name: "Ministry of Rural Development", URL: "https://rural.nic.in"},
		},
		{
			Title:       "Swachh Bharat Mission Gramin Phase-II: New Targets Announced",
			Description: "Under the Swachh Bharat Mission Gramin Phase-II, the government has set new targets for ODF Plus villages including solid and liquid waste management facilities.",
			URL:         "https://swachhbharatmission.gov.in",
			PublishedAt: now.Add(-3 * day),
			Source:      models.NewsSource{Name: "Ministry of Jal Shakti", URL: "https://jalshakti-ddws.gov.in"},
		},
		{
			Title:       "Jal Jeevan Mission: 80% Rural Households Now Have Tap Water",
			Description: "The Jal Jeevan Mission has achieved a major milestone with 80% of rural households now having functional tap water connections, up from 17% in 2019.",
			URL:         "https://jaljeevanmission.gov.in",
			PublishedAt: now.Add(-4 * day),
			Source:      models.NewsSource{Name: "Ministry of Jal Shakti", URL: "https://jalshakti-ddws.gov.in"},
		},
		{
			Title:       "Digital India: UPI Transactions Cross 20 Billion Monthly",
			Description: "UPI digital payment transactions have crossed the 20 billion mark per month, with rural areas contributing significantly to the growth in digital financial inclusion.",
			URL:         "https://www.npci.org.in",
			PublishedAt: now.Add(-5 * day),
			Source:      models.NewsSource{Name: "NPCI", URL: "https://www.npci.org.in"},
		},
		{
			Title:       "Pradhan Mantri Gram Sadak Yojana: 98% Target Roads Completed",
			Description: "Under PMGSY, 98% of targeted rural roads have been constructed connecting 1.78 lakh habitations. The scheme continues to focus on upgrading existing rural road networks.",
			URL:         "https://pmgsy.nic.in",
			PublishedAt: now.Add(-6 * day),
			Source:      models.NewsSource{Name: "Ministry of Rural Development", URL: "https://rural.nic.in"},
		},
		{
			Title:       "15th Finance Commission: Increased Grants for Local Bodies",
			Description: "The 15th Finance Commission has recommended increased grants for Panchayati Raj institutions, with special focus on health, water, and sanitation at the village level.",
			URL:         "https://fincomindia.nic.in",
			PublishedAt: now.Add(-7 * day),
			Source:      models.NewsSource{Name: "Finance Commission", URL: "https://fincomindia.nic.in"},
		},
	}
}
