// Package sync drives the cloud backup exchange against the single well-known
// remote file. A session moves Unauthenticated -> Authenticating ->
// Authenticated, with an orthogonal busy flag serializing remote operations.
//
// The protocol has no optimistic concurrency control: the remote file is a
// mutable cell shared by every device on the account and the last writer
// wins. Known hazard, accepted by design.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/piggerypro/piggery/internal/domain/apperr"
	"github.com/piggerypro/piggery/internal/domain/models"
	"github.com/piggerypro/piggery/internal/metrics"
	"github.com/piggerypro/piggery/pkg/clients/googledrive"
	"github.com/piggerypro/piggery/pkg/clients/identity"
)

// State is the authentication phase of the session.
type State string

const (
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateAuthenticating  State = "AUTHENTICATING"
	StateAuthenticated   State = "AUTHENTICATED"
)

const (
	maxEvents           = 30
	defaultReadyTimeout = 10 * time.Second
)

// Event is one timestamped entry in the rolling diagnostic trail. Kept for
// display only, never for correctness.
type Event struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Status is the session snapshot reported to clients.
type Status struct {
	State                State      `json:"state"`
	Busy                 bool       `json:"busy"`
	CredentialConfigured bool       `json:"credentialConfigured"`
	LastSynced           *time.Time `json:"lastSynced,omitempty"`
}

// CredentialStore persists the free-text cloud client ID.
type CredentialStore interface {
	SaveCredential(ctx context.Context, clientID string) error
	LoadCredential(ctx context.Context) (string, error)
}

// IdentityFactory builds an identity client for the active client ID.
type IdentityFactory func(clientID string) identity.Client

// DriveFactory builds a drive client authorized with an access token.
type DriveFactory func(ctx context.Context, accessToken string) (googledrive.Client, error)

// Service is the cloud sync session.
type Service struct {
	creds        CredentialStore
	newIdentity  IdentityFactory
	newDrive     DriveFactory
	logger       *zap.Logger
	readyTimeout time.Duration
	now          func() time.Time

	mu          sync.Mutex
	state       State
	busy        bool
	identity    identity.Client
	drive       googledrive.Client
	tokenExpiry time.Time
	lastSynced  time.Time
	events      []Event
}

// NewService wires a sync session. The factories defer client construction
// until the credential and the access token are actually available.
func NewService(creds CredentialStore, newIdentity IdentityFactory, newDrive DriveFactory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		creds:        creds,
		newIdentity:  newIdentity,
		newDrive:     newDrive,
		logger:       logger,
		readyTimeout: defaultReadyTimeout,
		now:          time.Now,
		state:        StateUnauthenticated,
	}
}

// IsPlaceholderCredential reports whether the client ID looks obviously fake,
// so no network round-trip is wasted on it.
func IsPlaceholderCredential(clientID string) bool {
	trimmed := strings.TrimSpace(clientID)
	return len(trimmed) <= 10 || strings.Contains(trimmed, "YOUR_GOOGLE_CLIENT_ID")
}

// SetCredential persists a new client ID and resets the session: a changed
// application credential invalidates any prior token. It claims the busy flag
// so the reset cannot interleave with an in-flight exchange.
func (s *Service) SetCredential(ctx context.Context, clientID string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.finish()

	if err := s.creds.SaveCredential(ctx, clientID); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnauthenticated
	s.identity = nil
	s.drive = nil
	s.logEvent("Credential updated. Session reset.")
	return nil
}

// Ready performs the initialization handshake: it validates the configured
// credential and constructs the identity client, failing explicitly within a
// bounded timeout instead of polling indefinitely.
func (s *Service) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.readyTimeout)
	defer cancel()

	clientID, err := s.creds.LoadCredential(ctx)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	if IsPlaceholderCredential(clientID) {
		s.mu.Lock()
		s.logEvent("Ready: please set a client ID to enable cloud sync.")
		s.mu.Unlock()
		return &apperr.ConfigError{Reason: "no valid cloud client ID configured"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = s.newIdentity(clientID)
	s.logEvent("API readiness: ready.")
	return nil
}

// AuthCodeURL returns the consent URL for the configured credential.
func (s *Service) AuthCodeURL(ctx context.Context, state string) (string, error) {
	s.mu.Lock()
	ready := s.identity != nil
	s.mu.Unlock()
	if !ready {
		if err := s.Ready(ctx); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A credential change may have reset the session since the check above.
	if s.identity == nil {
		return "", &apperr.ConfigError{Reason: "no valid cloud client ID configured"}
	}
	return s.identity.AuthCodeURL(state), nil
}

// Authenticate trades the consent code for a short-lived access token and
// constructs the drive client. An empty code means the user cancelled or
// denied consent.
func (s *Service) Authenticate(ctx context.Context, code string) (err error) {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.finish()
	defer func() { metrics.RecordSync("authenticate", err) }()

	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		if err = s.Ready(ctx); err != nil {
			return err
		}
		s.mu.Lock()
	}
	s.state = StateAuthenticating
	s.logEvent("Opening sign-in exchange...")
	ident := s.identity
	s.mu.Unlock()

	if code == "" {
		s.failAuth("consent denied or cancelled")
		return &apperr.AuthError{Reason: "consent denied or cancelled"}
	}

	token, exchangeErr := ident.ExchangeCode(ctx, code)
	if exchangeErr != nil {
		s.failAuth("token request failed")
		return &apperr.AuthError{Reason: "token request failed", Err: exchangeErr}
	}

	drv, driveErr := s.newDrive(ctx, token.AccessToken)
	if driveErr != nil {
		s.failAuth("drive client init failed")
		return &apperr.AuthError{Reason: "drive client init failed", Err: driveErr}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drive = drv
	s.state = StateAuthenticated
	s.tokenExpiry = s.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	s.logEvent("Authentication successful.")
	return nil
}

// Save uploads the snapshot to the well-known remote file, creating it on
// first use and overwriting it wholesale afterwards. Last writer wins.
func (s *Service) Save(ctx context.Context, snapshot models.Snapshot) (err error) {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.finish()
	defer func() { metrics.RecordSync("save", err) }()

	drv, err := s.authorizedDrive()
	if err != nil {
		return err
	}

	s.record("Syncing to cloud...")
	fileID, _, findErr := drv.FindFile(ctx)
	if findErr != nil {
		s.record("Save error: file lookup failed.")
		return &apperr.NetworkError{Op: "find", Err: findErr}
	}

	payload, marshalErr := json.Marshal(snapshot)
	if marshalErr != nil {
		return fmt.Errorf("encode snapshot: %w", marshalErr)
	}

	if _, uploadErr := drv.Upload(ctx, fileID, payload); uploadErr != nil {
		s.record("Save error: upload failed.")
		return &apperr.NetworkError{Op: "save", Err: uploadErr}
	}

	s.mu.Lock()
	s.lastSynced = s.now()
	s.logEvent("Cloud sync complete.")
	s.mu.Unlock()
	return nil
}

// Load downloads and decodes the remote snapshot. An absent file is a
// legitimate empty state reported as found=false, not an error. The caller is
// responsible for confirming the destructive replacement before adopting it.
func (s *Service) Load(ctx context.Context) (snapshot models.Snapshot, found bool, err error) {
	if err := s.begin(); err != nil {
		return models.Snapshot{}, false, err
	}
	defer s.finish()
	defer func() { metrics.RecordSync("load", err) }()

	drv, err := s.authorizedDrive()
	if err != nil {
		return models.Snapshot{}, false, err
	}

	s.record("Downloading backup...")
	fileID, exists, findErr := drv.FindFile(ctx)
	if findErr != nil {
		s.record("Restore error: file lookup failed.")
		return models.Snapshot{}, false, &apperr.NetworkError{Op: "find", Err: findErr}
	}
	if !exists {
		s.record("No backup file found.")
		return models.Snapshot{}, false, nil
	}

	content, downloadErr := drv.Download(ctx, fileID)
	if downloadErr != nil {
		s.record("Restore error: download failed.")
		return models.Snapshot{}, false, &apperr.NetworkError{Op: "load", Err: downloadErr}
	}

	snapshot, decodeErr := models.DecodeSnapshot(content)
	if decodeErr != nil {
		s.record("Restore error: backup content invalid.")
		return models.Snapshot{}, false, decodeErr
	}

	s.record("Restore complete.")
	return snapshot, true, nil
}

// Status reports the session state for diagnostic display.
func (s *Service) Status(ctx context.Context) Status {
	clientID, err := s.creds.LoadCredential(ctx)
	configured := err == nil && !IsPlaceholderCredential(clientID)

	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{State: s.state, Busy: s.busy, CredentialConfigured: configured}
	if !s.lastSynced.IsZero() {
		synced := s.lastSynced
		st.LastSynced = &synced
	}
	return st
}

// Events returns a copy of the rolling diagnostic trail.
func (s *Service) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// begin claims the busy flag. Both save and load read-then-write the same
// remote file; overlapping them is a race, so a second operation is rejected
// outright rather than queued.
func (s *Service) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		s.logEvent("Operation rejected: sync already in progress.")
		return apperr.ErrSyncBusy
	}
	s.busy = true
	return nil
}

func (s *Service) finish() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Service) failAuth(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnauthenticated
	s.logEvent("Error: " + reason + ".")
}

// authorizedDrive returns the drive client when the session holds a live
// token.
func (s *Service) authorizedDrive() (googledrive.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated || s.drive == nil {
		s.logEvent("Operation rejected: not authenticated.")
		return nil, &apperr.AuthError{Reason: "not authenticated"}
	}
	if !s.tokenExpiry.IsZero() && s.now().After(s.tokenExpiry) {
		s.state = StateUnauthenticated
		s.drive = nil
		s.logEvent("Access token expired. Sign in again.")
		return nil, &apperr.AuthError{Reason: "access token expired"}
	}
	return s.drive, nil
}

func (s *Service) record(msg string) {
	s.mu.Lock()
	s.logEvent(msg)
	s.mu.Unlock()
}

// logEvent appends to the trail, keeping only the last maxEvents entries.
// Callers must hold s.mu.
func (s *Service) logEvent(msg string) {
	s.events = append(s.events, Event{At: s.now(), Message: msg})
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	s.logger.Debug("sync event", zap.String("message", msg))
}
