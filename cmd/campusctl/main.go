// cmd/campusctl/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/api/auth"
	"github.com/codr1/campusbook/internal/booking"
	"github.com/codr1/campusbook/internal/catalog"
	"github.com/codr1/campusbook/internal/db"
	"github.com/codr1/campusbook/internal/slot"
)

const usage = `usage: campusctl <command> [flags]

commands:
  facility-add      create a facility
  facility-list     list facilities
  facility-close    stop new bookings at a facility
  facility-open     accept new bookings at a facility
  maintenance-add   block a facility for a date range
  maintenance-list  list a facility's maintenance windows
  user-add          record a notification contact
  token             issue a bearer token (needs APP_SECRET_KEY)
`

var errUsage = errors.New("invalid usage")

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("campusctl failed")
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	command, args := args[0], args[1:]

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	dbPath := fs.String("db", "data/campusbook.db", "Path to SQLite database")

	switch command {
	case "token":
		return issueToken(fs, args, out)
	case "facility-add":
		name := fs.String("name", "", "Facility name")
		location := fs.String("location", "", "Building or room")
		capacity := fs.Int("capacity", 0, "Maximum attendees")
		opens := fs.String("opens", "08:00", "Opening time HH:MM")
		closes := fs.String("closes", "20:00", "Closing time HH:MM")
		approval := fs.Bool("approval", false, "Bookings need an administrator's approval")
		return withStore(fs, args, dbPath, func(store *catalog.Store) error {
			if strings.TrimSpace(*name) == "" || *capacity < 1 {
				return fmt.Errorf("%w: -name and a positive -capacity are required", errUsage)
			}
			openingTime, err := slot.ParseTimeOfDay(*opens)
			if err != nil {
				return err
			}
			closingTime, err := slot.ParseTimeOfDay(*closes)
			if err != nil {
				return err
			}
			facility, err := store.CreateFacility(ctx, catalog.Facility{
				Name:             *name,
				Location:         *location,
				Capacity:         *capacity,
				OpeningTime:      openingTime,
				ClosingTime:      closingTime,
				IsAvailable:      true,
				RequiresApproval: *approval,
			})
			if err != nil {
				return err
			}
			return printJSON(out, facility)
		})
	case "facility-list":
		return withStore(fs, args, dbPath, func(store *catalog.Store) error {
			facilities, err := store.ListFacilities(ctx)
			if err != nil {
				return err
			}
			return printJSON(out, facilities)
		})
	case "facility-close", "facility-open":
		id := fs.Int64("id", 0, "Facility id")
		return withStore(fs, args, dbPath, func(store *catalog.Store) error {
			if *id <= 0 {
				return fmt.Errorf("%w: -id is required", errUsage)
			}
			return store.SetAvailability(ctx, *id, command == "facility-open")
		})
	case "maintenance-add":
		facilityID := fs.Int64("facility", 0, "Facility id")
		from := fs.String("from", "", "First blocked date YYYY-MM-DD")
		to := fs.String("to", "", "Last blocked date YYYY-MM-DD, defaults to -from")
		reason := fs.String("reason", "", "Why the facility is closed")
		return withStore(fs, args, dbPath, func(store *catalog.Store) error {
			if *facilityID <= 0 {
				return fmt.Errorf("%w: -facility is required", errUsage)
			}
			if *to == "" {
				*to = *from
			}
			start, err := slot.ParseDate(*from)
			if err != nil {
				return err
			}
			end, err := slot.ParseDate(*to)
			if err != nil {
				return err
			}
			if end < start {
				return fmt.Errorf("-to %s is before -from %s", end, start)
			}
			if _, err := store.GetFacility(ctx, *facilityID); err != nil {
				return err
			}
			return store.AddMaintenance(ctx, *facilityID, start, end, *reason, nil)
		})
	case "maintenance-list":
		facilityID := fs.Int64("facility", 0, "Facility id")
		return withStore(fs, args, dbPath, func(store *catalog.Store) error {
			windows, err := store.ListMaintenance(ctx, *facilityID)
			if err != nil {
				return err
			}
			return printJSON(out, windows)
		})
	case "user-add":
		name := fs.String("name", "", "Display name")
		email := fs.String("email", "", "Address notifications are mailed to")
		return withStore(fs, args, dbPath, func(store *catalog.Store) error {
			if strings.TrimSpace(*name) == "" {
				return fmt.Errorf("%w: -name is required", errUsage)
			}
			id, err := store.AddUser(ctx, *name, *email)
			if err != nil {
				return err
			}
			return printJSON(out, map[string]int64{"id": id})
		})
	default:
		return errUsage
	}
}

// withStore parses args, opens the database the -db flag names and hands fn a
// catalog store over it.
func withStore(fs *flag.FlagSet, args []string, dbPath *string, fn func(*catalog.Store) error) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	database, err := db.New(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(catalog.NewStore(database.Queries))
}

func issueToken(fs *flag.FlagSet, args []string, out io.Writer) error {
	userID := fs.Int64("user", 0, "User id")
	role := fs.String("role", string(booking.RoleStudent), "STUDENT, STAFF, ADMIN, SECURITY or VISITOR")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	issuer := fs.String("issuer", "campusbook", "Issuer, must match app.name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *userID <= 0 {
		return fmt.Errorf("%w: -user is required", errUsage)
	}
	tokens, err := auth.NewTokens(os.Getenv("APP_SECRET_KEY"), *issuer)
	if err != nil {
		return err
	}
	raw, err := tokens.Issue(*userID, booking.ParseRole(*role), *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, raw)
	return err
}

func printJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
