// Package services contains server-side business logic. AccountService runs
// the account lifecycle: registration, activation token issuance, activation
// and password login.
package services

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/vitae/internal/common"
	"github.com/dmitrijs2005/vitae/internal/dbx"
	"github.com/dmitrijs2005/vitae/internal/logging"
	"github.com/dmitrijs2005/vitae/internal/server/auth"
	"github.com/dmitrijs2005/vitae/internal/server/locks"
	"github.com/dmitrijs2005/vitae/internal/server/mailer"
	"github.com/dmitrijs2005/vitae/internal/server/models"
	"github.com/dmitrijs2005/vitae/internal/server/password"
	"github.com/dmitrijs2005/vitae/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vitae/internal/server/repositories/users"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	activationTokenBytes   = 32
	activationTemplate     = "activation"
	activationPath         = "/users/activation"
	backgroundTaskDeadline = time.Minute
)

// RegisterInput is the registration request as received from a client.
type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// Validate checks the shape of the input. Password equality and email
// availability are left to RegisterUser.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.By(notBlank), validation.Length(1, 200)),
		validation.Field(&in.Email, validation.By(notBlank), validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(1, password.MaxBcryptBytes)),
		validation.Field(&in.PasswordConfirmation, validation.Required),
	)
}

func notBlank(value interface{}) error {
	if s, _ := value.(string); strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// ActivationEmail is the data rendered into the activation template.
type ActivationEmail struct {
	Name string
	Link string
}

// Collaborators groups the external components the engine calls.
type Collaborators struct {
	Hasher password.Hasher
	Signer auth.Signer
	Sender mailer.Sender
	Locker locks.Locker
	Logger logging.Logger
}

type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      password.Hasher
	signer      auth.Signer
	sender      mailer.Sender
	locker      locks.Locker
	logger      logging.Logger
	publicURL   string

	now func() time.Time
	wg  sync.WaitGroup

	dummyOnce   sync.Once
	dummyDigest string
}

// NewAccountService wires the engine. publicURL is the externally visible base
// address used in activation links.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, c Collaborators, publicURL string) *AccountService {
	logger := c.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	locker := c.Locker
	if locker == nil {
		locker = locks.NewLocalLocker()
	}
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      c.Hasher,
		signer:      c.Signer,
		sender:      c.Sender,
		locker:      locker,
		logger:      logger.With("module", "accounts"),
		publicURL:   strings.TrimRight(publicURL, "/"),
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterUser creates an inactive user. The email is checked for
// availability before anything is written.
func (s *AccountService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)

	unlock, err := s.locker.Lock(ctx, "register:"+email)
	if err != nil {
		return nil, common.Dependency("lock", err)
	}
	defer unlock()

	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, common.Dependency("exists by email", err)
	}
	if exists {
		return nil, common.ErrDuplicateEmail
	}

	if in.Password != in.PasswordConfirmation {
		return nil, common.ErrPasswordMismatch
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		return nil, common.Dependency("hash password", err)
	}

	user, err := repo.Create(ctx, &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: digest,
		IsActive:     false,
	})
	if err != nil {
		// unique index violation from a concurrent registration
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, common.Dependency("create user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// GetActivationToken issues a fresh activation token for the user, deleting
// the one issued before (used or not).
func (s *AccountService) GetActivationToken(ctx context.Context, userID string) (*models.ActivationToken, error) {
	token, _, err := s.issueActivationToken(ctx, userID)
	return token, err
}

func (s *AccountService) issueActivationToken(ctx context.Context, userID string) (*models.ActivationToken, *models.User, error) {
	unlock, err := s.locker.Lock(ctx, "activation:"+userID)
	if err != nil {
		return nil, nil, common.Dependency("lock", err)
	}
	defer unlock()

	user, err := s.findUser(ctx, s.repomanager.Users(s.db), userID)
	if err != nil {
		return nil, nil, err
	}

	value, err := common.MakeRandHexString(activationTokenBytes)
	if err != nil {
		return nil, nil, common.Dependency("generate token", err)
	}

	var token *models.ActivationToken
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.ActivationTokens(tx)

		prior, err := tokens.FindByUserID(ctx, user.ID)
		switch {
		case err == nil:
			if err := tokens.Delete(ctx, prior.ID); err != nil {
				return common.Dependency("delete activation token", err)
			}
		case !errors.Is(err, common.ErrorNotFound):
			return common.Dependency("find activation token", err)
		}

		token, err = tokens.Create(ctx, &models.ActivationToken{
			Value:  value,
			UserID: user.ID,
		})
		if err != nil {
			return common.Dependency("create activation token", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, txError(err)
	}

	s.logger.Debug(ctx, "activation token issued", "user_id", user.ID)
	return token, user, nil
}

// ActivateUser redeems an activation token. The token is marked used and the
// user activated in one transaction.
func (s *AccountService) ActivateUser(ctx context.Context, tokenValue string) error {
	token, err := s.repomanager.ActivationTokens(s.db).FindByValue(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrTokenNotFound
		}
		return common.Dependency("find activation token", err)
	}

	if token.HasBeenUsed {
		return common.ErrTokenAlreadyUsed
	}

	user, err := s.findUser(ctx, s.repomanager.Users(s.db), token.UserID)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.ActivationTokens(tx).MarkUsed(ctx, token.ID); err != nil {
			if errors.Is(err, common.ErrTokenAlreadyUsed) {
				return err
			}
			// superseded by a newer token since the lookup
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrTokenNotFound
			}
			return common.Dependency("mark token used", err)
		}
		if err := s.repomanager.Users(tx).Activate(ctx, user.ID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUserNotFound
			}
			return common.Dependency("activate user", err)
		}
		return nil
	})
	if err != nil {
		return txError(err)
	}

	s.logger.Info(ctx, "user activated", "user_id", user.ID)
	return nil
}

// GetAuthorizationToken verifies the password of an active user and returns
// a signed bearer token. Unknown email, inactive account and wrong password
// are indistinguishable to the caller.
func (s *AccountService) GetAuthorizationToken(ctx context.Context, email, plain string) (string, error) {
	user, err := s.repomanager.Users(s.db).FindActiveByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnVerify(plain)
			return "", common.ErrInvalidCredentials
		}
		return "", common.Dependency("find user", err)
	}

	ok, err := s.hasher.Verify(plain, user.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "stored password digest unreadable", "user_id", user.ID, "error", err)
		return "", common.Dependency("verify password", err)
	}
	if !ok {
		return "", common.ErrInvalidCredentials
	}

	token, err := s.signer.Sign(user.ID, s.now())
	if err != nil {
		return "", common.Dependency("sign token", err)
	}

	s.logger.Debug(ctx, "user logged in", "user_id", user.ID)
	return token, nil
}

// burnVerify spends the same hashing work as a real check so that unknown
// emails answer in about the same time as wrong passwords.
func (s *AccountService) burnVerify(plain string) {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.hasher.Hash("vitae-dummy-password")
	})
	if s.dummyDigest != "" {
		_, _ = s.hasher.Verify(plain, s.dummyDigest)
	}
}

// SendActivationEmail delivers the activation link for token to user.
func (s *AccountService) SendActivationEmail(ctx context.Context, token *models.ActivationToken, user *models.User) error {
	data := ActivationEmail{
		Name: user.Name,
		Link: s.ActivationLink(token.Value),
	}
	if err := s.sender.Send(ctx, user.Email, activationTemplate, data); err != nil {
		return common.Dependency("send activation email", err)
	}
	return nil
}

// ActivationLink is the URL a user opens to redeem value.
func (s *AccountService) ActivationLink(value string) string {
	return s.publicURL + activationPath + "?token=" + url.QueryEscape(value)
}

// StartActivation issues a token for a newly registered user and emails it,
// in the background. Failures are logged and never reach the caller.
func (s *AccountService) StartActivation(ctx context.Context, user *models.User) {
	s.background(ctx, func(ctx context.Context) {
		token, _, err := s.issueActivationToken(ctx, user.ID)
		if err != nil {
			s.logger.Warn(ctx, "activation token not issued", "user_id", user.ID, "error", err)
			return
		}
		if err := s.SendActivationEmail(ctx, token, user); err != nil {
			s.logger.Warn(ctx, "activation email not sent", "user_id", user.ID, "error", err)
		}
	})
}

// ResendActivation supersedes the user's activation token synchronously, so
// that the caller learns about unknown users, then emails the new one in the
// background.
func (s *AccountService) ResendActivation(ctx context.Context, userID string) error {
	token, user, err := s.issueActivationToken(ctx, userID)
	if err != nil {
		return err
	}
	s.background(ctx, func(ctx context.Context) {
		if err := s.SendActivationEmail(ctx, token, user); err != nil {
			s.logger.Warn(ctx, "activation email not sent", "user_id", user.ID, "error", err)
		}
	})
	return nil
}

func (s *AccountService) background(ctx context.Context, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTaskDeadline)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until background tasks finish or ctx is done.
func (s *AccountService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Authenticate resolves the user a bearer token was issued to. The
// "Bearer " prefix is optional.
func (s *AccountService) Authenticate(ctx context.Context, bearer string) (*models.User, error) {
	raw := strings.TrimSpace(bearer)
	if len(raw) > len(common.BearerPrefix) && strings.EqualFold(raw[:len(common.BearerPrefix)], common.BearerPrefix) {
		raw = strings.TrimSpace(raw[len(common.BearerPrefix):])
	}
	if raw == "" {
		return nil, common.ErrInvalidToken
	}

	userID, err := s.signer.Verify(raw)
	if err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, s.repomanager.Users(s.db), userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *AccountService) findUser(ctx context.Context, repo users.Repository, id string) (*models.User, error) {
	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.Dependency("find user", err)
	}
	return user, nil
}

// txError keeps domain errors raised inside a transaction and classifies the
// rest (begin/commit failures) as dependency failures.
func txError(err error) error {
	for _, known := range []error{
		common.ErrDependencyUnavailable,
		common.ErrTokenAlreadyUsed,
		common.ErrTokenNotFound,
		common.ErrUserNotFound,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return common.Dependency("transaction", err)
}
