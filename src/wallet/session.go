package wallet

import (
	"context"
	"sync"

	"github.com/onemorebsmith/soroban-vault/src/common"
	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var validTransitions = map[model.SessionStatus][]model.SessionStatus{
	model.SessionUninitialized: {model.SessionChecking},
	model.SessionChecking:      {model.SessionDisconnected, model.SessionConnected, model.SessionError},
	model.SessionDisconnected:  {model.SessionChecking, model.SessionConnecting},
	model.SessionError:         {model.SessionChecking, model.SessionConnecting},
	model.SessionConnecting:    {model.SessionConnected, model.SessionError, model.SessionDisconnected},
	model.SessionConnected:     {model.SessionDisconnected},
}

// Session tracks wallet availability and the active identity for one process lifetime.
// Create one per process (or per test); nothing about it is global. Transitions are broadcast
// to listeners registered with OnTransition.
type Session struct {
	ext    Extension
	logger *zap.Logger

	opLock sync.Mutex // serializes Probe/RequestConnection/Disconnect; the first two may block on the user

	stateLock        sync.RWMutex
	state            model.SessionState
	userDisconnected bool

	transitions *common.Broadcaster[model.SessionTransition]
}

func NewSession(ext Extension, logger *zap.Logger) *Session {
	return &Session{
		ext:         ext,
		logger:      logger.With(zap.String("component", "wallet_session")),
		state:       model.SessionState{Status: model.SessionUninitialized},
		transitions: common.NewBroadcaster[model.SessionTransition](),
	}
}

func (s *Session) State() model.SessionState {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()
	return s.state
}

// CurrentIdentity returns the connected identity, false when not connected
func (s *Session) CurrentIdentity() (model.Identity, bool) {
	st := s.State()
	if !st.Connected() {
		return model.Identity{}, false
	}
	return st.Identity, true
}

func (s *Session) OnTransition(cb func(model.SessionTransition)) (cleanup func()) {
	return s.transitions.On(cb)
}

func (s *Session) transition(to model.SessionState) error {
	if to.Status == model.SessionConnected && to.Identity.Empty() {
		return errors.New("refusing to connect without an address")
	}
	s.stateLock.Lock()
	from := s.state
	allowed := false
	for _, v := range validTransitions[from.Status] {
		if v == to.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		s.stateLock.Unlock()
		return errors.Errorf("invalid session transition %s -> %s", from, to)
	}
	s.state = to
	s.stateLock.Unlock()

	s.logger.Info("session transition", zap.Stringer("from", from), zap.Stringer("to", to))
	s.transitions.Broadcast(model.SessionTransition{From: from, To: to})
	return nil
}

func (s *Session) fail(reason string) {
	if err := s.transition(model.SessionState{Status: model.SessionError, Reason: reason}); err != nil {
		s.logger.Error("failed recording session error", zap.Error(err))
	}
}

func (s *Session) settle(status model.SessionStatus) {
	if err := s.transition(model.SessionState{Status: status}); err != nil {
		s.logger.Error("failed settling session", zap.Error(err))
	}
}

// Probe checks for the extension and standing permission without ever prompting. A missing
// extension is a normal unconnected state. After Disconnect, Probe never reconnects on its
// own even if the wallet still grants this client access; RequestConnection is needed.
func (s *Session) Probe(ctx context.Context) model.SessionState {
	s.opLock.Lock()
	defer s.opLock.Unlock()
	return s.probe(ctx)
}

func (s *Session) probe(ctx context.Context) model.SessionState {
	if s.State().Status == model.SessionConnected {
		return s.State()
	}
	if err := s.transition(model.SessionState{Status: model.SessionChecking}); err != nil {
		s.logger.Error("cannot probe", zap.Error(err))
		return s.State()
	}

	if s.ext == nil {
		s.settle(model.SessionDisconnected)
		return s.State()
	}
	present, err := s.ext.IsExtensionPresent(ctx)
	if err != nil {
		s.fail(errors.Wrap(err, "failed checking for wallet extension").Error())
		return s.State()
	}
	if !present {
		s.logger.Info("no wallet extension found")
		s.settle(model.SessionDisconnected)
		return s.State()
	}

	s.stateLock.RLock()
	userDisconnected := s.userDisconnected
	s.stateLock.RUnlock()
	if userDisconnected {
		s.settle(model.SessionDisconnected)
		return s.State()
	}

	allowed, err := s.ext.HasStandingPermission(ctx)
	if err != nil {
		s.fail(errors.Wrap(err, "failed checking wallet permission").Error())
		return s.State()
	}
	if !allowed {
		s.settle(model.SessionDisconnected)
		return s.State()
	}

	address, err := s.ext.GetActiveAddress(ctx)
	if err != nil {
		s.fail(errors.Wrap(err, "failed fetching wallet address").Error())
		return s.State()
	}
	if address == "" {
		s.settle(model.SessionDisconnected)
		return s.State()
	}
	if err := s.transition(model.SessionState{
		Status:   model.SessionConnected,
		Identity: model.NewIdentity(model.StellarAddr(address)),
	}); err != nil {
		s.fail(err.Error())
	}
	return s.State()
}

// RequestConnection prompts for access when this client isn't already permitted, then reads
// the active address. Calling it while connected returns the existing identity untouched.
func (s *Session) RequestConnection(ctx context.Context) (model.Identity, error) {
	s.opLock.Lock()
	defer s.opLock.Unlock()

	if id, ok := s.CurrentIdentity(); ok {
		return id, nil
	}
	if s.State().Status == model.SessionUninitialized {
		if st := s.probe(ctx); st.Connected() {
			return st.Identity, nil
		}
	}

	s.stateLock.Lock()
	s.userDisconnected = false
	s.stateLock.Unlock()

	if err := s.transition(model.SessionState{Status: model.SessionConnecting}); err != nil {
		return model.Identity{}, errors.Wrap(err, "cannot connect")
	}

	if s.ext == nil {
		s.fail(model.ErrNoWalletExtension.Error())
		return model.Identity{}, model.ErrNoWalletExtension
	}
	present, err := s.ext.IsExtensionPresent(ctx)
	if err != nil {
		s.fail(err.Error())
		return model.Identity{}, model.Classify(model.ErrTransport, err)
	}
	if !present {
		s.fail(model.ErrNoWalletExtension.Error())
		return model.Identity{}, model.ErrNoWalletExtension
	}

	allowed, err := s.ext.HasStandingPermission(ctx)
	if err != nil {
		s.fail(err.Error())
		return model.Identity{}, model.Classify(model.ErrTransport, err)
	}
	if !allowed {
		s.logger.Info("requesting wallet access")
		if err := s.ext.RequestPermission(ctx); err != nil {
			if errors.Is(err, ErrUserRejected) {
				s.settle(model.SessionDisconnected)
				return model.Identity{}, model.ErrPermissionDenied
			}
			s.fail(err.Error())
			return model.Identity{}, model.Classify(model.ErrTransport, err)
		}
		// the prompt can close without granting anything
		allowed, err = s.ext.HasStandingPermission(ctx)
		if err != nil {
			s.fail(err.Error())
			return model.Identity{}, model.Classify(model.ErrTransport, err)
		}
		if !allowed {
			s.settle(model.SessionDisconnected)
			return model.Identity{}, model.ErrPermissionDenied
		}
	}

	address, err := s.ext.GetActiveAddress(ctx)
	if err != nil {
		s.fail(err.Error())
		return model.Identity{}, model.Classify(model.ErrTransport, err)
	}
	if address == "" {
		s.fail("wallet returned no address")
		return model.Identity{}, model.WithDetail(model.ErrTransport, "wallet returned no address")
	}

	identity := model.NewIdentity(model.StellarAddr(address))
	if err := s.transition(model.SessionState{Status: model.SessionConnected, Identity: identity}); err != nil {
		s.fail(err.Error())
		return model.Identity{}, err
	}
	return identity, nil
}

// Sign asks the wallet to sign envelopeXDR. A rejection comes back as model.ErrSignatureDeclined
// and must not be retried automatically; the caller has to start over.
func (s *Session) Sign(ctx context.Context, envelopeXDR string, networkPassphrase string) (string, error) {
	id, ok := s.CurrentIdentity()
	if !ok {
		return "", model.ErrNotConnected
	}
	s.logger.Info("requesting transaction signature", zap.String("account", string(id.Address)))
	signed, err := s.ext.RequestSignature(ctx, envelopeXDR, networkPassphrase)
	if err != nil {
		if errors.Is(err, ErrUserRejected) {
			return "", model.ErrSignatureDeclined
		}
		return "", model.Classify(model.ErrTransport, errors.Wrap(err, "wallet failed to sign"))
	}
	return signed, nil
}

// Disconnect forgets the identity held in memory. It does NOT revoke the permission the wallet
// granted this client; only the user can do that from the wallet itself. Until then
// RequestConnection will reconnect without a prompt, while Probe stays disconnected.
// A connection attempt in flight finishes first, so Disconnect always has the last word.
func (s *Session) Disconnect() {
	s.opLock.Lock()
	defer s.opLock.Unlock()

	s.stateLock.Lock()
	s.userDisconnected = true
	connected := s.state.Status == model.SessionConnected
	s.stateLock.Unlock()

	if connected {
		s.settle(model.SessionDisconnected)
	}
}
