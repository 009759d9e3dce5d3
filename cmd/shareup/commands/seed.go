package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Jessiellen/shareup-app/internal/application"
	"github.com/Jessiellen/shareup-app/internal/printer"
	"github.com/Jessiellen/shareup-app/internal/scheduler"
)

// seedFile is the YAML fixture format read by `shareup seed`.
type seedFile struct {
	Requests     []seedRequest     `yaml:"requests"`
	Appointments []seedAppointment `yaml:"appointments"`
}

type seedParty struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Avatar *string `yaml:"avatar,omitempty"`
}

func (p seedParty) principal() application.Principal {
	return application.Principal{UserID: p.ID, DisplayName: p.Name, Avatar: p.Avatar}
}

func (p seedParty) party() application.Party {
	return application.Party{ID: p.ID, Name: p.Name, Avatar: p.Avatar}
}

type seedSlot struct {
	Date string `yaml:"date"`
	Time string `yaml:"time"`
}

type seedResponse struct {
	Decision string  `yaml:"decision"`
	Message  *string `yaml:"message,omitempty"`
}

type seedRequest struct {
	Requester       seedParty     `yaml:"requester"`
	Recipient       seedParty     `yaml:"recipient"`
	Title           string        `yaml:"title"`
	Description     string        `yaml:"description,omitempty"`
	Date            string        `yaml:"date"`
	Time            string        `yaml:"time"`
	Alternatives    []seedSlot    `yaml:"alternatives,omitempty"`
	DurationMinutes int           `yaml:"duration_minutes,omitempty"`
	Location        string        `yaml:"location,omitempty"`
	Medium          string        `yaml:"medium,omitempty"`
	Message         *string       `yaml:"message,omitempty"`
	Response        *seedResponse `yaml:"response,omitempty"`
}

type seedAppointment struct {
	Owner           seedParty `yaml:"owner"`
	Participant     seedParty `yaml:"participant"`
	Title           string    `yaml:"title"`
	Description     string    `yaml:"description,omitempty"`
	Date            string    `yaml:"date"`
	Time            string    `yaml:"time"`
	DurationMinutes int       `yaml:"duration_minutes"`
	Location        string    `yaml:"location,omitempty"`
	Medium          string    `yaml:"medium,omitempty"`
	Status          string    `yaml:"status,omitempty"`
}

func loadSeedFile(path string) (seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file seedFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return seedFile{}, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return file, nil
}

func newSeedCmd(opts *globalOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load requests and appointments from a YAML fixture file",
		Long: `seed submits every request in the file as its requester, answers it when a
response is given, and creates every appointment as its owner. Records go
through the same validation as API calls.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			file, err := loadSeedFile(path)
			if err != nil {
				return err
			}
			if len(file.Requests) == 0 && len(file.Appointments) == 0 {
				p.Warning("%s has nothing to seed", path)
				return nil
			}

			env, err := loadEnvironment(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, env.cfg, env.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			var publisher application.EventPublisher
			if env.cfg.RedisAddr != "" {
				bus, closeBus, err := openBus(ctx, env.cfg, env.logger)
				if err != nil {
					return err
				}
				defer closeBus()
				publisher = bus
			}

			svc := newServices(store, env.cfg, env.logger, publisher)
			if err := seed(ctx, p, svc, file); err != nil {
				return err
			}
			p.Success("seeded %d requests and %d appointments", len(file.Requests), len(file.Appointments))
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "fixtures.yaml", "YAML fixture file")
	return cmd
}

func seed(ctx context.Context, p *printer.Printer, svc services, file seedFile) error {
	for i, entry := range file.Requests {
		alternatives := make([]scheduler.Slot, 0, len(entry.Alternatives))
		for _, slot := range entry.Alternatives {
			alternatives = append(alternatives, scheduler.Slot{Date: slot.Date, Time: slot.Time})
		}

		request, err := svc.requests.Submit(ctx, application.SubmitRequestParams{
			Principal: entry.Requester.principal(),
			Input: application.RequestInput{
				Recipient:        entry.Recipient.party(),
				Title:            entry.Title,
				Description:      entry.Description,
				RequestedDate:    entry.Date,
				RequestedTime:    entry.Time,
				AlternativeSlots: alternatives,
				DurationMinutes:  entry.DurationMinutes,
				Location:         entry.Location,
				Medium:           entry.Medium,
				Message:          entry.Message,
			},
		})
		if err != nil {
			return fmt.Errorf("request #%d (%s): %w", i+1, entry.Title, err)
		}
		p.Step("request %s: %s -> %s", request.ID, request.Requester.ID, request.Recipient.ID)

		if entry.Response == nil {
			continue
		}
		result, err := svc.requests.Respond(ctx, application.RespondParams{
			Principal: application.Principal{UserID: entry.Recipient.ID},
			RequestID: request.ID,
			Decision:  entry.Response.Decision,
			Message:   entry.Response.Message,
		})
		if err != nil {
			return fmt.Errorf("response to request #%d (%s): %w", i+1, entry.Title, err)
		}
		if result.Appointment != nil {
			p.Step("  accepted, appointment %s", result.Appointment.ID)
		} else {
			p.Step("  %s", result.Request.Status)
		}
	}

	for i, entry := range file.Appointments {
		appointment, warnings, err := svc.appointments.Create(ctx, application.CreateAppointmentParams{
			Principal: entry.Owner.principal(),
			Input: application.AppointmentInput{
				Title:           entry.Title,
				Description:     entry.Description,
				Date:            entry.Date,
				Time:            entry.Time,
				DurationMinutes: entry.DurationMinutes,
				Location:        entry.Location,
				Medium:          entry.Medium,
				Status:          entry.Status,
				Participant:     entry.Participant.party(),
			},
		})
		if err != nil {
			return fmt.Errorf("appointment #%d (%s): %w", i+1, entry.Title, err)
		}
		p.Step("appointment %s: %s with %s on %s %s", appointment.ID, appointment.OwnerID, appointment.Participant.ID, appointment.Date, appointment.Time)
		for _, warning := range warnings {
			p.Warning("overlaps %s for %s", warning.AppointmentID, warning.ParticipantID)
		}
	}
	return nil
}
