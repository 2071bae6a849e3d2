package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/parlorchat/parlor/server/domain"
)

const mailboxSize = 64

type opKind int

const (
	opConnect opKind = iota
	opJoin
	opRename
	opLeave
	opSnapshot
)

type command struct {
	kind         opKind
	connectionID string
	remote       string
	name         string
	reply        chan error
	snapshot     chan []domain.Participant
}

// Coordinator owns every mutation of the "who is connected, under what name"
// fact. All operations are delivered as commands to a single processing
// goroutine, so a join's check-then-insert and a rename's remove-then-insert
// run as indivisible units, and operations for one connection are handled
// strictly in arrival order: a disconnect queued behind an in-flight join
// waits for it and is then processed as a leave.
//
// Broadcasts fire only after the repository confirmed the mutation.
type Coordinator struct {
	repo     Repository
	router   *domain.Router
	clock    func() time.Time
	log      *slog.Logger
	commands chan command
	sessions map[string]*domain.ConnectionSession
}

func NewCoordinator(repo Repository, router *domain.Router, log *slog.Logger) *Coordinator {
	return &Coordinator{
		repo:     repo,
		router:   router,
		clock:    time.Now,
		log:      log,
		commands: make(chan command, mailboxSize),
		sessions: make(map[string]*domain.ConnectionSession),
	}
}

// WithClock injects a clock, for tests.
func (c *Coordinator) WithClock(clock func() time.Time) *Coordinator {
	c.clock = clock
	return c
}

// Run processes commands until ctx is cancelled. It must be running before
// any operation is submitted.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.log.Debug("stopping presence coordinator")
			return ctx.Err()
		case cmd := <-c.commands:
			c.dispatch(cmd)
		}
	}
}

func (c *Coordinator) dispatch(cmd command) {
	switch cmd.kind {
	case opConnect:
		cmd.reply <- c.handleConnect(cmd)
	case opJoin:
		cmd.reply <- c.handleJoin(cmd)
	case opRename:
		cmd.reply <- c.handleRename(cmd)
	case opLeave:
		cmd.reply <- c.handleLeave(cmd)
	case opSnapshot:
		list, err := c.repo.ListParticipants()
		cmd.snapshot <- list
		cmd.reply <- err
	}
}

// Connect registers a session in the Anonymous state.
func (c *Coordinator) Connect(ctx context.Context, connectionID, remote string) error {
	return c.submit(ctx, command{kind: opConnect, connectionID: connectionID, remote: remote})
}

// Join transitions the connection to Joined under the requested name and
// broadcasts the resulting presence snapshot. A name already held by a
// connected participant is reported to the requester only.
func (c *Coordinator) Join(ctx context.Context, connectionID, requestedName string) error {
	return c.submit(ctx, command{kind: opJoin, connectionID: connectionID, name: requestedName})
}

// Rename changes the display name in place. It is a silent no-op for
// connections that are not Joined or for names empty after trimming.
func (c *Coordinator) Rename(ctx context.Context, connectionID, newName string) error {
	return c.submit(ctx, command{kind: opRename, connectionID: connectionID, name: newName})
}

// Leave removes the participant and broadcasts the disconnect. Leave is
// idempotent; repeated transport disconnect signals are absorbed here.
func (c *Coordinator) Leave(ctx context.Context, connectionID string) error {
	return c.submit(ctx, command{kind: opLeave, connectionID: connectionID})
}

// Participants returns the presence snapshot as of all fully-completed prior
// operations. The read goes through the mailbox so it can never observe a
// half-applied rename.
func (c *Coordinator) Participants(ctx context.Context) ([]domain.Participant, error) {
	cmd := command{
		kind:     opSnapshot,
		reply:    make(chan error, 1),
		snapshot: make(chan []domain.Participant, 1),
	}
	select {
	case c.commands <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var list []domain.Participant
	select {
	case list = <-cmd.snapshot:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		if err != nil {
			return nil, fmt.Errorf("failed to list participants: %w", err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return list, nil
}

func (c *Coordinator) submit(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case c.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// session returns the tracked state for a connection, creating an Anonymous
// entry on first sight. The transport normally calls Connect first, but an
// operation arriving ahead of it must not crash the loop.
func (c *Coordinator) session(connectionID, remote string) *domain.ConnectionSession {
	if sess, ok := c.sessions[connectionID]; ok {
		return sess
	}
	sess := domain.NewConnectionSession(connectionID, remote)
	c.sessions[connectionID] = &sess
	return &sess
}

func (c *Coordinator) handleConnect(cmd command) error {
	if cmd.connectionID == "" {
		return fmt.Errorf("empty connection id")
	}
	c.session(cmd.connectionID, cmd.remote)
	return nil
}

func (c *Coordinator) handleJoin(cmd command) error {
	sess := c.session(cmd.connectionID, cmd.remote)
	switch sess.State {
	case domain.StateJoined:
		c.log.Warn("connection joined twice without leaving",
			"connection_id", cmd.connectionID, "name", sess.Name)
		return domain.ErrDuplicateConnection
	case domain.StateLeft:
		c.log.Warn("join on a left connection", "connection_id", cmd.connectionID)
		return domain.ErrDuplicateConnection
	}

	name, err := domain.NormalizeName(cmd.name)
	if err != nil {
		return err
	}

	if _, err := c.repo.GetParticipantByName(name); err == nil {
		reason := fmt.Sprintf("A user with the name %s is already logged in the chat room. Please choose a different name.", name)
		if err := c.router.SendTo(cmd.connectionID, domain.NewNameTakenEvent(cmd.connectionID, reason)); err != nil {
			c.log.Debug("could not address name-taken error", "connection_id", cmd.connectionID, "error", err)
		}
		return domain.ErrDuplicateName
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to check name availability: %w", err)
	}

	participant := domain.NewParticipant(cmd.connectionID, name, c.clock())
	if err := c.repo.CreateParticipant(participant); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			c.log.Warn("participant record exists for a fresh session", "connection_id", cmd.connectionID)
			return domain.ErrDuplicateConnection
		}
		return fmt.Errorf("failed to persist participant: %w", err)
	}

	sess.State = domain.StateJoined
	sess.Name = name

	list, err := c.repo.ListParticipants()
	if err != nil {
		return fmt.Errorf("failed to build presence snapshot: %w", err)
	}
	c.router.Broadcast(domain.NewPresenceEvent(list))
	c.log.Info("participant joined", "connection_id", cmd.connectionID, "name", name)
	return nil
}

func (c *Coordinator) handleRename(cmd command) error {
	sess := c.session(cmd.connectionID, cmd.remote)
	if sess.State != domain.StateJoined {
		return nil
	}

	name, err := domain.NormalizeName(cmd.name)
	if err != nil {
		// Whitespace-only rename is dropped, not an error.
		return nil
	}

	old, err := c.repo.GetParticipant(cmd.connectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load participant: %w", err)
	}

	// Legacy semantics: remove then re-insert, which also moves the
	// participant to the end of the presence order. Name uniqueness is NOT
	// re-checked here, unlike join; two participants can end up sharing a
	// name via rename.
	if err := c.repo.DeleteParticipant(cmd.connectionID); err != nil {
		return fmt.Errorf("failed to remove old participant record: %w", err)
	}
	renamed := domain.NewParticipant(cmd.connectionID, name, c.clock())
	if err := c.repo.CreateParticipant(renamed); err != nil {
		// Try to put the old record back so the store does not lose the
		// participant; the session stays Joined either way.
		if restoreErr := c.repo.CreateParticipant(old); restoreErr != nil {
			c.log.Error("rename lost participant record",
				"connection_id", cmd.connectionID, "error", restoreErr)
		}
		return fmt.Errorf("failed to persist renamed participant: %w", err)
	}

	sess.Name = name
	c.router.Broadcast(domain.NewRenameEvent(renamed))
	c.log.Info("participant renamed",
		"connection_id", cmd.connectionID, "from", old.Name, "to", name)
	return nil
}

func (c *Coordinator) handleLeave(cmd command) error {
	sess := c.session(cmd.connectionID, cmd.remote)
	if sess.State == domain.StateLeft {
		return nil
	}

	if sess.State != domain.StateJoined {
		// Anonymous connection going away: nothing in the store, nothing to
		// broadcast.
		sess.State = domain.StateLeft
		return nil
	}

	// The session flips to Left only once the store removal is confirmed.
	// A failed leave leaves the session Joined so the caller's retry still
	// reaches the store instead of short-circuiting above and orphaning the
	// participant record.
	if _, err := c.repo.GetParticipant(cmd.connectionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			sess.State = domain.StateLeft
			return nil
		}
		return fmt.Errorf("failed to load participant: %w", err)
	}
	if err := c.repo.DeleteParticipant(cmd.connectionID); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	sess.State = domain.StateLeft

	c.router.Broadcast(domain.NewDisconnectEvent(cmd.connectionID))
	c.log.Info("participant left", "connection_id", cmd.connectionID, "name", sess.Name)
	return nil
}
