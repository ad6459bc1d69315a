package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"voicebank/internal/bank"
	"voicebank/internal/domain"
	"voicebank/internal/nlu"
)

const recognitionUnavailableMsg = "Speech recognition is unavailable right now. Please try again."

// Assistant wires the voice pipeline together: it pulls requests from
// the audio source, resolves text through speech-to-text, dispatches
// enrollment and verification to the voice verifier and commands to
// the transaction executor, and sends every response to the notifier.
// No single failing request stops the loop.
type Assistant struct {
	audio      AudioSource
	stt        SpeechToText
	verifier   VoiceVerifier
	exec       *bank.Executor
	notifier   Notifier
	logger     *slog.Logger
	profileDir string
	sttTimeout time.Duration
	persist    func(context.Context) error

	mu       sync.Mutex
	pinFlows map[string]*bank.PINChange
}

func NewAssistant(
	audio AudioSource,
	stt SpeechToText,
	verifier VoiceVerifier,
	exec *bank.Executor,
	notifier Notifier,
	logger *slog.Logger,
	profileDir string,
	persist func(context.Context) error,
) *Assistant {
	return &Assistant{
		audio:      audio,
		stt:        stt,
		verifier:   verifier,
		exec:       exec,
		notifier:   notifier,
		logger:     logger,
		profileDir: profileDir,
		sttTimeout: 30 * time.Second,
		persist:    persist,
		pinFlows:   make(map[string]*bank.PINChange),
	}
}

func (a *Assistant) Run(ctx context.Context) error {
	if a.profileDir != "" {
		if err := os.MkdirAll(a.profileDir, 0o755); err != nil {
			return fmt.Errorf("creating profile dir: %w", err)
		}
	}

	a.logger.Info("starting audio source", "source", a.audio.Name())
	if err := a.audio.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer a.audio.Stop()

	a.logger.Info("assistant ready, listening for commands")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneRequest(ctx); err != nil {
				a.logger.Error("processing request", "error", err)
			}
		}
	}
}

func (a *Assistant) processOneRequest(ctx context.Context) error {
	req, err := a.audio.NextRequest(ctx)
	if err != nil {
		return fmt.Errorf("getting request: %w", err)
	}
	if req == nil || (len(req.Audio) == 0 && req.Text == "") {
		return nil
	}

	switch req.Kind {
	case domain.KindEnroll:
		return a.handleEnroll(ctx, req)
	case domain.KindVerify:
		return a.handleVerify(ctx, req)
	default:
		return a.handleCommand(ctx, req)
	}
}

func (a *Assistant) handleEnroll(ctx context.Context, req *domain.Request) error {
	path, err := a.saveAudio(req)
	if err != nil {
		a.respond(ctx, fmt.Sprintf("Enrollment failed for user %s", req.UserID))
		return err
	}

	if err := a.verifier.Enroll(ctx, req.UserID, path); err != nil {
		a.respond(ctx, fmt.Sprintf("Enrollment failed for user %s", req.UserID))
		return fmt.Errorf("enrolling %s: %w", req.UserID, err)
	}

	a.persistState(ctx)
	a.respond(ctx, fmt.Sprintf("User %s enrolled successfully", req.UserID))
	return nil
}

func (a *Assistant) handleVerify(ctx context.Context, req *domain.Request) error {
	path, err := a.saveAudio(req)
	if err != nil {
		a.respond(ctx, fmt.Sprintf("Verification failed for user %s", req.UserID))
		return err
	}

	verified, similarity, err := a.verifier.Verify(ctx, req.UserID, path)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", req.UserID, err)
	}

	if verified {
		a.respond(ctx, fmt.Sprintf("User %s authenticated. Similarity: %.0f%%", req.UserID, similarity*100))
	} else {
		a.respond(ctx, fmt.Sprintf("User %s not enrolled. Similarity: %.0f%%", req.UserID, similarity*100))
	}
	return nil
}

func (a *Assistant) handleCommand(ctx context.Context, req *domain.Request) error {
	var text string

	if req.IsText() {
		a.logger.Info("received text command", "user", req.UserID, "text", req.Text)
		text = req.Text
	} else {
		a.logger.Info("received audio", "user", req.UserID, "bytes", len(req.Audio))

		sttCtx, cancel := context.WithTimeout(ctx, a.sttTimeout)
		transcribed, err := a.stt.Transcribe(sttCtx, req.Audio)
		cancel()
		if err != nil {
			// Recognition failure is surfaced as its own response; it
			// must not degrade to an unknown command. A PIN change in
			// flight is rejected rather than fed the next step.
			if flow := a.takeFlowIfActive(req.UserID); flow != nil {
				a.respond(ctx, flow.Fail("could not understand the spoken PIN"))
			} else {
				a.respond(ctx, recognitionUnavailableMsg)
			}
			return fmt.Errorf("transcribing: %w", err)
		}

		a.logger.Info("transcribed", "user", req.UserID, "text", transcribed)
		text = transcribed
	}

	a.respond(ctx, a.dispatch(ctx, req.UserID, text))
	return nil
}

// dispatch routes recognized text: an in-flight PIN change consumes it
// first, otherwise it is classified and executed.
func (a *Assistant) dispatch(ctx context.Context, userID, text string) string {
	a.mu.Lock()
	flow, active := a.pinFlows[userID]
	a.mu.Unlock()

	if active {
		reply := flow.Submit(text)
		if flow.Done() {
			a.removeFlow(userID)
			if flow.State() == bank.StateApplied {
				a.persistState(ctx)
			}
		}
		return reply
	}

	intent := nlu.ClassifyIntent(text)
	a.logger.Info("classified intent", "user", userID, "intent", intent)

	switch intent {
	case domain.IntentTransfer:
		reply := a.exec.Transfer(userID, text)
		a.persistState(ctx)
		return reply
	case domain.IntentBalance:
		return a.exec.CheckBalance(userID)
	case domain.IntentTransactions:
		return a.exec.ListTransactions(userID, bank.DefaultHistoryCount)
	case domain.IntentChangePIN:
		flow := bank.NewPINChange(userID, a.exec)
		a.mu.Lock()
		a.pinFlows[userID] = flow
		a.mu.Unlock()
		a.logger.Info("started pin change", "user", userID, "session", flow.ID)
		return flow.Prompt()
	default:
		return "Sorry, I didn't understand that command. Try: 'Transfer 500 to John', 'Check balance', or 'Show transactions'"
	}
}

func (a *Assistant) takeFlowIfActive(userID string) *bank.PINChange {
	a.mu.Lock()
	defer a.mu.Unlock()
	flow, ok := a.pinFlows[userID]
	if !ok {
		return nil
	}
	delete(a.pinFlows, userID)
	return flow
}

func (a *Assistant) removeFlow(userID string) {
	a.mu.Lock()
	delete(a.pinFlows, userID)
	a.mu.Unlock()
}

func (a *Assistant) saveAudio(req *domain.Request) (string, error) {
	name := fmt.Sprintf("%s_%s_%d.wav", req.Kind, req.UserID, time.Now().UnixNano())
	path := filepath.Join(a.profileDir, name)
	if err := os.WriteFile(path, req.Audio, 0o644); err != nil {
		return "", fmt.Errorf("saving audio: %w", err)
	}
	return path, nil
}

func (a *Assistant) persistState(ctx context.Context) {
	if a.persist == nil {
		return
	}
	if err := a.persist(ctx); err != nil {
		a.logger.Error("persisting state", "error", err)
	}
}

func (a *Assistant) respond(ctx context.Context, message string) {
	a.logger.Info("response", "message", message)
	if err := a.notifier.Notify(ctx, message); err != nil {
		a.logger.Error("notifying", "error", err)
	}
}
