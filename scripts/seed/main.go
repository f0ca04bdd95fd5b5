package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"smsoutreach/internal/auth"
	"smsoutreach/internal/config"
)

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// Command-line flags
var (
	adminEmail    = flag.String("admin-email", "admin@example.com", "Email for the seeded admin user")
	adminPassword = flag.String("admin-password", "changeme", "Password for the seeded admin user")
	withDemo      = flag.Bool("demo", true, "Seed a demo campaign, templates and contacts")
	clearData     = flag.Bool("clear", false, "Clear existing seed data before inserting")
	showHelp      = flag.Bool("help", false, "Show usage information")
)

func main() {
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	// Load .env file (ignore error if not present)
	_ = godotenv.Load()

	printInfo("=== SMS Outreach Seeder ===\n")

	cfg, err := config.Load()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		printError(fmt.Sprintf("Failed to open database connection: %v", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		printError(fmt.Sprintf("Failed to ping database: %v", err))
		os.Exit(1)
	}
	printSuccess("✓ Connected to database\n")

	if *clearData {
		if err := clearSeedData(db); err != nil {
			printError(fmt.Sprintf("Failed to clear data: %v", err))
			os.Exit(1)
		}
		printSuccess("✓ Cleared existing seed data\n")
	}

	if err := seedAdminUser(db, *adminEmail, *adminPassword); err != nil {
		printError(fmt.Sprintf("Failed to seed admin user: %v", err))
		os.Exit(1)
	}

	if *withDemo {
		if err := seedTemplates(db); err != nil {
			printError(fmt.Sprintf("Failed to seed templates: %v", err))
			os.Exit(1)
		}
		if err := seedContacts(db); err != nil {
			printError(fmt.Sprintf("Failed to seed contacts: %v", err))
			os.Exit(1)
		}
		if err := seedDemoCampaign(db); err != nil {
			printError(fmt.Sprintf("Failed to seed demo campaign: %v", err))
			os.Exit(1)
		}
	}

	printInfo("\n✨ Seeding completed successfully!")
}

// clearSeedData removes demo rows in dependency order
func clearSeedData(db *sql.DB) error {
	statements := []string{
		`DELETE FROM campaign_sends`,
		`DELETE FROM campaign_enrollments`,
		`DELETE FROM campaign_ab_tests`,
		`DELETE FROM campaign_messages`,
		`DELETE FROM campaigns`,
		`DELETE FROM scheduled_bulk_messages`,
		`DELETE FROM messages`,
		`DELETE FROM message_templates`,
		`DELETE FROM manual_contacts`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// seedAdminUser creates the admin account if it does not exist yet
func seedAdminUser(db *sql.DB, email, password string) error {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM auth_users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		printWarning(fmt.Sprintf("  • Admin user %s already exists, skipping", email))
		return nil
	}

	hash, salt, err := auth.HashPassword(password, "")
	if err != nil {
		return err
	}

	_, err = db.Exec(
		`INSERT INTO auth_users (email, password_hash, salt, name, role) VALUES ($1, $2, $3, $4, $5)`,
		email, hash, salt, "Administrator", auth.RoleAdmin,
	)
	if err != nil {
		return err
	}

	printSuccess(fmt.Sprintf("  ✓ Created admin user %s", email))
	return nil
}

// seedTemplates inserts a few reusable message templates
func seedTemplates(db *sql.DB) error {
	templates := []struct {
		name string
		body string
	}{
		{"Introduction", "Hi {name}, this is Sarah from Apex Insurance. I wanted to reach out about coverage options for {company}."},
		{"Follow Up", "Hi {name}, just following up on my earlier message. Would {date} work for a quick call?"},
		{"Renewal Reminder", "Hi {name}, your policy is coming up for renewal. Reply YES and I'll send over updated quotes."},
	}

	for _, t := range templates {
		_, err := db.Exec(
			`INSERT INTO message_templates (name, body) VALUES ($1, $2)`,
			t.name, t.body,
		)
		if err != nil {
			return err
		}
	}

	printSuccess(fmt.Sprintf("  ✓ Created %d message templates", len(templates)))
	return nil
}

// seedContacts inserts manually added demo contacts
func seedContacts(db *sql.DB) error {
	contacts := []struct {
		name, phone, company, role string
	}{
		{"Jordan Reyes", "5550100001", "Reyes Roofing", "Owner"},
		{"Casey Tran", "5550100002", "Tran Builders", "Project Manager"},
		{"Morgan Ellis", "5550100003", "Ellis Contracting", "Owner"},
	}

	for _, c := range contacts {
		_, err := db.Exec(
			`INSERT INTO manual_contacts (name, phone_number, company, role)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (phone_number) DO NOTHING`,
			c.name, c.phone, c.company, c.role,
		)
		if err != nil {
			return err
		}
	}

	printSuccess(fmt.Sprintf("  ✓ Created %d manual contacts", len(contacts)))
	return nil
}

// seedDemoCampaign creates a draft campaign with a three-step sequence
func seedDemoCampaign(db *sql.DB) error {
	var campaignID int
	err := db.QueryRow(
		`INSERT INTO campaigns (name, description, status, enrollment_type, default_send_time)
		 VALUES ($1, $2, 'draft', 'snapshot', '11:00')
		 RETURNING id`,
		"Demo Outreach Sequence",
		"Three-step introduction drip for new roofing leads",
	).Scan(&campaignID)
	if err != nil {
		return err
	}

	messages := []struct {
		order    int
		body     string
		days     int
		followup bool
	}{
		{1, "Hi {name}, this is Sarah from Apex Insurance. We work with contractors like {company} on builders risk coverage. Mind if I send over some info?", 0, true},
		{2, "Hi {name}, following up from last week. Most contractors we work with save 15-20% on their current premiums. Worth a quick look?", 3, false},
		{3, "Hi {name}, last note from me. If coverage ever comes up for {company}, we're here. Have a great {date}!", 4, false},
	}

	for _, m := range messages {
		_, err := db.Exec(
			`INSERT INTO campaign_messages (campaign_id, sequence_order, message_body, days_after_previous, enable_followup, followup_days)
			 VALUES ($1, $2, $3, $4, $5, 3)`,
			campaignID, m.order, m.body, m.days, m.followup,
		)
		if err != nil {
			return err
		}
	}

	printSuccess(fmt.Sprintf("  ✓ Created demo campaign #%d with %d messages", campaignID, len(messages)))
	printInfo(fmt.Sprintf("    Start it after enrolling contacts: POST /api/campaigns/%d/start", campaignID))
	return nil
}

func printUsage() {
	fmt.Println("Usage: go run scripts/seed/main.go [flags]")
	fmt.Println()
	flag.PrintDefaults()
}

func printInfo(msg string) {
	fmt.Println(colorCyan + msg + colorReset)
}

func printSuccess(msg string) {
	fmt.Println(colorGreen + msg + colorReset)
}

func printWarning(msg string) {
	fmt.Println(colorYellow + msg + colorReset)
}

func printError(msg string) {
	fmt.Println(colorRed + msg + colorReset)
}
