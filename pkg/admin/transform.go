package admin

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sukryu/pAdmin/pkg/errors"
)

// HashFunc is a one-way hash applied to a secret before it is stored.
type HashFunc func(secret string) (string, error)

// Transformer rewrites submitted fields before they are persisted. raw is
// the submitted field map, validated the schema-checked instance. On error
// no output is produced.
type Transformer interface {
	TransformCreate(raw, validated *FieldMap) (*FieldMap, error)
	TransformUpdate(raw, validated *FieldMap) (*FieldMap, error)
}

// SecretTransformer moves a plaintext secret from SourceField into a hashed
// TargetField. Without Hash the secret is copied unchanged.
type SecretTransformer struct {
	SourceField    string
	TargetField    string
	Hash           HashFunc
	RequiredFields []string
	// TimestampField is set to Now() on every update.
	TimestampField string
	Now            func() time.Time
}

var _ Transformer = (*SecretTransformer)(nil)

// BcryptHash hashes with golang.org/x/crypto/bcrypt at the given cost.
func BcryptHash(cost int) HashFunc {
	return func(secret string) (string, error) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
		if err != nil {
			return "", err
		}
		return string(hashed), nil
	}
}

// DefaultAdminTransformer is installed on admin-model entities that do not
// configure a transformer of their own.
func DefaultAdminTransformer() *SecretTransformer {
	return &SecretTransformer{
		SourceField:    "password",
		TargetField:    "hashed_password",
		Hash:           BcryptHash(bcrypt.DefaultCost),
		RequiredFields: []string{"username"},
		TimestampField: "updated_at",
	}
}

func (t *SecretTransformer) TransformCreate(raw, validated *FieldMap) (*FieldMap, error) {
	out := NewFieldMap()
	for _, k := range raw.Keys() {
		if k == t.SourceField {
			continue
		}
		v, _ := raw.Get(k)
		out.Set(k, v)
	}

	if err := t.putSecret(out, validated); err != nil {
		return nil, err
	}

	for _, f := range t.RequiredFields {
		v, ok := out.Get(f)
		if !ok || isBlank(v) {
			return nil, errors.ErrMissingRequiredField.WithReason(fmt.Sprintf("requires a %s", f))
		}
	}
	return out, nil
}

// TransformUpdate is a sparse patch: blank submitted values are dropped.
func (t *SecretTransformer) TransformUpdate(raw, validated *FieldMap) (*FieldMap, error) {
	out := NewFieldMap()
	if t.TimestampField != "" {
		out.Set(t.TimestampField, t.now())
	}
	for _, k := range raw.Keys() {
		if k == t.SourceField || k == t.TimestampField {
			continue
		}
		v, _ := raw.Get(k)
		if isBlank(v) {
			continue
		}
		out.Set(k, v)
	}

	if err := t.putSecret(out, validated); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *SecretTransformer) putSecret(out, validated *FieldMap) error {
	v, ok := validated.Get(t.SourceField)
	if !ok || v == nil {
		return nil
	}
	secret, isString := v.(string)
	if !isString {
		secret = fmt.Sprintf("%v", v)
	}
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	if t.Hash == nil {
		out.Set(t.TargetField, secret)
		return nil
	}
	hashed, err := t.Hash(secret)
	if err != nil {
		return errors.ErrInvalidInput.WithReason(fmt.Sprintf("%s: %v", t.SourceField, err))
	}
	out.Set(t.TargetField, hashed)
	return nil
}

func (t *SecretTransformer) now() time.Time {
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}
