package admin

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/sukryu/pAdmin/pkg/errors"
	"github.com/sukryu/pAdmin/pkg/store/dynamic"
)

const (
	usernameField = "username"
	roleField     = "role"
)

var errInvalidCredentials = errors.ErrUnauthorized.WithReason("invalid credentials")

// Authenticate checks a username and password against the rows of an
// admin-model entity and returns the matching actor.
func (v *EntityView) Authenticate(ctx context.Context, username, password string) (Actor, error) {
	if !v.desc.AdminModel {
		return Actor{}, errors.ErrUnauthorized.WithReason(v.desc.Name + " does not hold credentials")
	}
	secretField := DefaultAdminTransformer().TargetField
	if st, ok := v.desc.Transformer.(*SecretTransformer); ok && st.TargetField != "" {
		secretField = st.TargetField
	}

	rows, _, err := v.store.GetMany(ctx, v.desc.Table, dynamic.ListQuery{
		Limit:   1,
		Filters: []dynamic.Filter{{Column: usernameField, Operator: dynamic.OpEquals, Value: username}},
	})
	if err != nil {
		return Actor{}, storageError(err)
	}
	if len(rows) == 0 {
		return Actor{}, errInvalidCredentials
	}

	hashed, _ := rows[0][secretField].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)); err != nil {
		return Actor{}, errInvalidCredentials
	}

	actor := Actor{ID: FormatID(rows[0][v.desc.PrimaryKey])}
	if role, ok := rows[0][roleField].(string); ok && role != "" {
		actor.Roles = []string{role}
	}
	return actor, nil
}
