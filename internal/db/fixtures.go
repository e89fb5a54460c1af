package db

import (
	"context"
	"fmt"

	"github.com/pdxmph/pocket-contacts/internal/contact"
)

// Fixtures returns realistic sample contacts
func Fixtures() []contact.Contact {
	return []contact.Contact{
		{
			FirstName: "Sarah",
			LastName:  "Chen",
			Phone:     "555-0101",
			Email:     "sarah.chen@email.com",
			Company:   "Tech Startup Inc",
			Notes:     "Close friend from college, now working at a promising startup. Great for **product feedback**.",
			Favorite:  true,
		},
		{
			FirstName: "Marcus",
			LastName:  "Williams",
			Phone:     "555-0102",
			Email:     "marcus.w@company.com",
			Company:   "Design Studio",
			Notes:     "Talented designer and close collaborator. Always has interesting project ideas.",
		},
		{
			FirstName: "Alex",
			LastName:  "Thompson",
			Phone:     "555-0104",
			Email:     "alex.thompson@email.com",
			Notes:     "Cousin in Seattle, software engineer. Mentioned wanting to connect about career advice.",
			Favorite:  true,
		},
		{
			FirstName: "Jennifer",
			LastName:  "Rodriguez",
			Phone:     "555-0105",
			Email:     "jen.rodriguez@company.com",
			Company:   "Big Corp Ltd",
			Notes:     "Product manager at Big Corp, excellent collaboration on API project",
		},
		{
			FirstName: "David",
			LastName:  "Kim",
			Email:     "david.kim@aistartup.io",
			Company:   "AI Startup",
			Notes:     "CTO at promising AI startup, interested in potential partnership",
		},
		{
			FirstName: "Lisa",
			LastName:  "Park",
			Phone:     "555-0107",
			Company:   "Strategy Consulting",
		},
		{
			FirstName: "Emily",
			LastName:  "Zhang",
			Phone:     "555-0109",
			Email:     "emily@zhang.design",
			Company:   "Freelance",
			Avatar:    "https://avatars.example.com/emily.png",
		},
		{
			FirstName: "Mike",
			LastName:  "Johnson",
			Phone:     "555-0110",
			Notes:     "Friend from hiking group, always up for outdoor adventures",
		},
		{
			FirstName: "Amanda",
			LastName:  "Foster",
			Email:     "amanda@techrecruit.com",
			Company:   "Tech Recruiting Firm",
			Notes:     "Technical recruiter specializing in senior engineering roles. Good market insights.",
		},
	}
}

// CreateFixturesDatabase creates a test database with realistic sample data
func CreateFixturesDatabase(driver, dbPath string, opts ...Option) error {
	// Initialize empty database
	if err := Initialize(driver, dbPath); err != nil {
		return fmt.Errorf("initializing fixtures database: %w", err)
	}

	// Open database to add test data
	database, err := Open(driver, dbPath, opts...)
	if err != nil {
		return fmt.Errorf("opening fixtures database: %w", err)
	}
	defer database.Close()

	ctx := context.Background()
	for _, c := range Fixtures() {
		if _, err := database.Create(ctx, c); err != nil {
			return fmt.Errorf("adding fixture contact %s: %w", c.FullName(), err)
		}
	}

	return nil
}
