package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-mock-interview/internal/config"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
	"github.com/fairyhunter13/ai-mock-interview/pkg/interviewclient"
)

const (
	promptRetry = "Retry this answer"
	promptQuit  = "Quit"
)

var errExit = errors.New("exit requested")

// answerer collects answers and decisions from the candidate.
type answerer interface {
	Answer(q domain.Question) (string, error)
	RetryAfterRateLimit(message string) (bool, error)
}

type terminalAnswerer struct{}

func (terminalAnswerer) Answer(q domain.Question) (string, error) {
	p := promptui.Prompt{Label: fmt.Sprintf("Round %d answer", q.Round)}
	ans, err := p.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", errExit
	}
	return ans, err
}

func (terminalAnswerer) RetryAfterRateLimit(message string) (bool, error) {
	s := promptui.Select{Label: message, Items: []string{promptRetry, promptQuit}}
	_, choice, err := s.Run()
	if err != nil {
		return false, err
	}
	return choice == promptRetry, nil
}

type session struct {
	client        *interviewclient.Client
	ui            answerer
	out           io.Writer
	profile       domain.ResumeProfile
	lang          domain.Language
	interviewType string
	now           func() time.Time
}

// run plays one interview to the end and returns the final report.
func (s *session) run(ctx context.Context) (domain.FinalReport, error) {
	started := s.now()
	st, err := s.client.Start(ctx, s.profile, s.lang)
	if err != nil {
		return domain.FinalReport{}, fmt.Errorf("starting interview: %w", err)
	}
	fmt.Fprintf(s.out, "Role track: %s\n\n", st.RoleCategory)

	var history []domain.QARecord
	q := st.Question
	round := 1
	for {
		fmt.Fprintf(s.out, "\n[Round %d] %s\n", q.Round, q.Text)
		asked := s.now()
		ans, err := s.ui.Answer(q)
		if err != nil {
			return domain.FinalReport{}, err
		}
		req := interviewclient.TurnRequest{
			QuestionID:    q.ID,
			Question:      q.Text,
			Answer:        strings.TrimSpace(ans),
			DurationMs:    int(s.now().Sub(asked).Milliseconds()),
			ResumeProfile: s.profile,
			QAHistory:     history,
			CurrentRound:  round,
			QuestionIndex: len(history),
			Language:      s.lang,
		}
		res, err := s.submit(ctx, req)
		if err != nil {
			return domain.FinalReport{}, err
		}
		history = res.QAHistory
		fmt.Fprintf(s.out, "Score: %d/100. %s\n", res.Evaluation.Score, res.Evaluation.Feedback)
		if res.ShouldEndInterview || res.NextQuestion == nil {
			break
		}
		if res.ShouldAdvanceRound {
			fmt.Fprintf(s.out, "\n--- Round %d complete ---\n", round)
		}
		round = res.NextRound
		q = *res.NextQuestion
	}

	rep, err := s.client.Finalize(ctx, interviewclient.FinalizeRequest{
		Language:      s.lang,
		InterviewType: s.interviewType,
		ResumeProfile: s.profile,
		QAHistory:     history,
		DurationSec:   int(s.now().Sub(started).Seconds()),
	})
	if err != nil {
		return domain.FinalReport{}, fmt.Errorf("finalizing interview: %w", err)
	}
	return rep, nil
}

// submit resubmits the same turn after a rate limit when the candidate asks to.
func (s *session) submit(ctx context.Context, req interviewclient.TurnRequest) (interviewclient.TurnResponse, error) {
	for {
		res, err := s.client.SubmitTurn(ctx, req)
		if err == nil {
			return res, nil
		}
		if !interviewclient.IsRateLimited(err) {
			return interviewclient.TurnResponse{}, fmt.Errorf("submitting answer: %w", err)
		}
		var ae *interviewclient.APIError
		msg := "The AI interviewer is busy."
		if errors.As(err, &ae) && ae.Message != "" {
			msg = ae.Message
		}
		retry, perr := s.ui.RetryAfterRateLimit(msg)
		if perr != nil {
			return interviewclient.TurnResponse{}, perr
		}
		if !retry {
			return interviewclient.TurnResponse{}, errExit
		}
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive mock interview",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("resume")
		langFlag, _ := cmd.Flags().GetString("lang")
		server, _ := cmd.Flags().GetString("server")
		interviewType, _ := cmd.Flags().GetString("type")

		profile, err := loadProfile(path)
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		rc := cfg.GetRetryConfig()
		s := &session{
			client:        interviewclient.New(server, interviewclient.WithRetry(rc.MaxRetries, rc.Step)),
			ui:            terminalAnswerer{},
			out:           cmd.OutOrStdout(),
			profile:       profile,
			lang:          domain.ParseLanguage(langFlag),
			interviewType: interviewType,
			now:           time.Now,
		}
		rep, err := s.run(cmd.Context())
		if errors.Is(err, errExit) {
			fmt.Fprintln(cmd.OutOrStdout(), "Interview stopped.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), rep.RenderedDocument)
		if rep.ID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Report id: %s\n", rep.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("server", "http://localhost:8080", "interview API base URL")
	runCmd.Flags().String("type", "technical", "interview type recorded on the report")
}
