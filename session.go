package fincache

import (
	"context"
	"errors"
	"strings"

	"github.com/unkn0wn-root/fincache/credential"
	"github.com/unkn0wn-root/fincache/model"
)

// LoggedIn reports whether a token is stored.
func (cl *Client) LoggedIn() bool {
	_, ok := cl.creds.Token()
	return ok
}

// Login exchanges credentials for a token and starts a fresh session. Data
// cached for a previous user is dropped first.
func (cl *Client) Login(ctx context.Context, in model.Credentials) (model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return model.User{}, validationErr(OpLogin, "", "email and password are required")
	}
	res, err := cl.backend.Login(ctx, in)
	if err != nil {
		// a rejected login is bad input, not a lost session
		e := wrapErr(OpLogin, "", err)
		if e.Kind == KindAuthInvalid {
			e.Kind = KindValidation
		}
		return model.User{}, cl.fail(ctx, e)
	}
	if strings.TrimSpace(res.Token) == "" {
		return model.User{}, cl.fail(ctx, &Error{Op: OpLogin, Kind: KindTransient, Message: "login response carried no token"})
	}
	if err := cl.Reset(ctx); err != nil {
		cl.log.Warn("cache reset before login failed", Fields{"err": err})
	}
	if err := cl.creds.SetToken(res.Token); err != nil {
		return model.User{}, cl.fail(ctx, wrapErr(OpLogin, "", err))
	}
	cl.profile.Forget(profileKey)
	cl.log.Info("logged in", Fields{"user": res.User.ID})
	return res.User, nil
}

const profileKey = "profile"

// Profile loads the signed-in user. Concurrent callers share one request.
func (cl *Client) Profile(ctx context.Context) (model.User, error) {
	if !cl.LoggedIn() {
		return model.User{}, cl.fail(ctx, wrapErr(OpProfile, "", credential.ErrNoToken))
	}
	v, err, _ := cl.profile.Do(profileKey, func() (any, error) {
		u, err := cl.backend.Profile(ctx)
		if err != nil {
			return nil, cl.fail(ctx, wrapErr(OpProfile, "", err))
		}
		return u, nil
	})
	if err != nil {
		return model.User{}, err
	}
	return v.(model.User), nil
}

// Logout clears the credential and every cache entry.
func (cl *Client) Logout(ctx context.Context) error {
	err := cl.endSession(ctx)
	cl.log.Info("logged out", nil)
	return err
}

func (cl *Client) endSession(ctx context.Context) error {
	cl.profile.Forget(profileKey)
	return errors.Join(cl.creds.Clear(), cl.Reset(ctx))
}
