package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"temporal-worker-onboarding/api"
	"temporal-worker-onboarding/bootstrap"
	"temporal-worker-onboarding/config"
	"temporal-worker-onboarding/logger"
	"temporal-worker-onboarding/shared"
)

func main() {
	companyID := flag.String("company", "COMP-001", "company ID")
	employeeID := flag.String("employee", "EMP-001", "employee ID")
	apiKey := flag.String("api-key", os.Getenv("ONBOARDING_API_KEY"), "backend API key")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("ONBOARDING_CONFIG"))
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}
	logr := logger.New("warn")
	c, err := bootstrap.Dial(cfg, logr)
	if err != nil {
		log.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	// Secret form fields are sealed here and read by the activity worker,
	// so both need the same redis.
	h, err := bootstrap.OpenHandoff(ctx, cfg, logr)
	if err != nil {
		log.Fatalf("Unable to open handoff store: %v", err)
	}
	defer h.Close()

	engine := api.NewTemporalEngine(c)
	intake := api.NewIntake(h.Vault)
	reader := bufio.NewReader(os.Stdin)

	req := shared.OnboardingRequest{
		Credentials: shared.Credentials{APIKey: *apiKey, CompanyID: *companyID, EmployeeID: *employeeID},
		Host:        shared.HostOptions{ShowError: true, ErrorCallback: true},
	}

	fmt.Println()
	fmt.Println("🚀 Starting onboarding session for employee", *employeeID)

	started, err := engine.Start(ctx, req)
	if err != nil {
		log.Fatalf("Unable to start session: %v", err)
	}
	key := started.SessionKey
	if started.Joined {
		fmt.Println("   Rejoined the running session.")
	}
	fmt.Printf("   SessionKey: %s\n", key)

	for {
		fmt.Println()
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println("  Worker Onboarding CLI")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println()
		fmt.Println("  [1] Submit profile")
		fmt.Println("  [2] Submit account")
		fmt.Println("  [3] Choose document type")
		fmt.Println("  [4] Start identity verification")
		fmt.Println("  [5] Capture SSN card photo (base64)")
		fmt.Println("  [6] Accept or retake capture")
		fmt.Println("  [7] Open e-signature")
		fmt.Println("  [8] Back out of e-signature")
		fmt.Println("  [9] Query session state")
		fmt.Println("  [x] Exit onboarding (cancels the session)")
		fmt.Println("  [q] Quit CLI (session keeps running)")
		fmt.Println()
		fmt.Print("Choose: ")

		choice := prompt(reader, "")
		switch choice {
		case "1":
			form, err := intake.Profile(ctx, readProfile(reader))
			sendSealed(ctx, engine, key, shared.SignalProfileSubmitted, form, err)
		case "2":
			form, err := intake.Account(ctx, shared.AccountInput{
				Email:           prompt(reader, "Email: "),
				Password:        prompt(reader, "Password: "),
				ConfirmPassword: prompt(reader, "Confirm password: "),
			})
			sendSealed(ctx, engine, key, shared.SignalAccountSubmitted, form, err)
		case "3":
			dt := shared.DocumentDriversLicense
			if strings.HasPrefix(strings.ToLower(prompt(reader, "Document [d]river's license / [p]assport: ")), "p") {
				dt = shared.DocumentPassport
			}
			send(ctx, engine, key, shared.SignalDocumentTypeSelected, dt)
		case "4":
			send(ctx, engine, key, shared.SignalVerificationRequested, nil)
			fmt.Printf("   Complete it with POST /sessions/%s/verification/result\n", key)
		case "5":
			doc, err := intake.Capture(ctx, shared.CaptureInput{
				ImageBase64: prompt(reader, "Image (base64): "),
			})
			sendSealed(ctx, engine, key, shared.SignalDocumentCaptured, doc, err)
		case "6":
			accept := strings.HasPrefix(strings.ToLower(prompt(reader, "[a]ccept / [r]etake: ")), "a")
			send(ctx, engine, key, shared.SignalCaptureReviewed, shared.CaptureReview{Accept: accept})
		case "7":
			send(ctx, engine, key, shared.SignalSigningRequested, nil)
			fmt.Printf("   Deliver page messages with POST /sessions/%s/signing/events\n", key)
		case "8":
			send(ctx, engine, key, shared.SignalSigningBackedOut, nil)
		case "9":
			printState(ctx, engine, key)
		case "x":
			send(ctx, engine, key, shared.SignalExitConfirmed, nil)
			return
		case "q":
			fmt.Println()
			fmt.Println("👋 Exiting CLI. The session continues running in Temporal.")
			fmt.Println("   Re-run this program to reconnect, or view at http://localhost:8233")
			return
		default:
			fmt.Println("❌ Invalid choice.")
		}
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readProfile(reader *bufio.Reader) shared.ProfileInput {
	return shared.ProfileInput{
		ProfileDetails: shared.ProfileDetails{
			FirstName:     prompt(reader, "First name: "),
			LastName:      prompt(reader, "Last name: "),
			MiddleInitial: prompt(reader, "Middle initial (optional): "),
			Address:       prompt(reader, "Street address: "),
			City:          prompt(reader, "City: "),
			State:         prompt(reader, "State: "),
			Zip:           prompt(reader, "Zip: "),
			Phone:         prompt(reader, "Phone (10 digits): "),
			DateOfBirth:   prompt(reader, "Date of birth (YYYY-MM-DD): "),
		},
		SSNParts: []string{prompt(reader, "SSN (###-##-####): ")},
	}
}

// sendSealed signals a form the intake accepted, or prints why it did not.
func sendSealed(ctx context.Context, engine api.Engine, key, signal string, payload any, err error) {
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	send(ctx, engine, key, signal, payload)
}

func send(ctx context.Context, engine api.Engine, key, signal string, payload any) {
	if err := engine.Signal(ctx, key, signal, payload); err != nil {
		fmt.Printf("❌ Signal failed: %v\n", err)
		return
	}
	fmt.Println("✅ Signal sent.")
}

func printState(ctx context.Context, engine api.Engine, key string) {
	view, err := engine.State(ctx, key)
	if err != nil {
		fmt.Printf("❌ Query failed: %v\n", err)
		return
	}
	out, _ := json.MarshalIndent(view, "   ", "  ")
	fmt.Printf("\n📋 State:\n   %s\n", out)
}
