package oauth

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wonjun/stiky/pkg/errors"
)

func decodeAttrs(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	attrs := map[string]any{}
	require.NoError(t, dec.Decode(&attrs))
	return attrs
}

func TestExtractProfile(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		raw      string
		email    string
		nickname string
		subject  string
	}{
		{
			name:     "google",
			provider: ProviderGoogle,
			raw:      `{"sub":"g123","email":"a@x.com","name":"A"}`,
			email:    "a@x.com", nickname: "A", subject: "g123",
		},
		{
			name:     "kakao profile nickname",
			provider: ProviderKakao,
			raw:      `{"id":3141592653589,"kakao_account":{"email":"k@x.com","profile":{"nickname":"K"}}}`,
			email:    "k@x.com", nickname: "K", subject: "3141592653589",
		},
		{
			name:     "kakao properties fallback",
			provider: ProviderKakao,
			raw:      `{"id":1,"kakao_account":{"email":"k@x.com"},"properties":{"nickname":"P"}}`,
			email:    "k@x.com", nickname: "P", subject: "1",
		},
		{
			name:     "naver",
			provider: ProviderNaver,
			raw:      `{"resultcode":"00","response":{"id":"n-1","email":"n@x.com","nickname":"N"}}`,
			email:    "n@x.com", nickname: "N", subject: "n-1",
		},
		{
			name:     "naver name fallback",
			provider: ProviderNaver,
			raw:      `{"response":{"id":"n-2","email":"n@x.com","name":"Full Name"}}`,
			email:    "n@x.com", nickname: "Full Name", subject: "n-2",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			attrs := decodeAttrs(t, tc.raw)
			profile, err := ExtractProfile(Identity{Provider: tc.provider, Attributes: attrs})
			require.NoError(t, err)
			assert.Equal(t, tc.email, profile.Email)
			assert.Equal(t, tc.nickname, profile.Nickname)
			assert.Equal(t, tc.subject, ExtractorFor(tc.provider).Subject(attrs))
		})
	}
}

func TestExtractProfile_EmailMissing(t *testing.T) {
	cases := map[string]string{
		ProviderGoogle: `{"sub":"g1","name":"A"}`,
		ProviderKakao:  `{"id":1,"kakao_account":{"email":"   "}}`,
		ProviderNaver:  `{"response":{"id":"n"}}`,
	}
	for provider, raw := range cases {
		t.Run(provider, func(t *testing.T) {
			_, err := ExtractProfile(Identity{Provider: provider, Attributes: decodeAttrs(t, raw)})
			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.CodeProviderEmailMissing, appErr.Code)
		})
	}
}

func TestExtractProfile_NestedShapeMismatch(t *testing.T) {
	// a google-shaped profile routed through the kakao extractor must not
	// fall back to the flat email field
	_, err := ExtractProfile(Identity{Provider: ProviderKakao, Attributes: map[string]any{"email": "a@x.com"}})
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeProviderEmailMissing, appErr.Code)
}

func TestExtractProfile_UnknownProvider(t *testing.T) {
	_, err := ExtractProfile(Identity{Provider: "github", Attributes: map[string]any{"email": "a@x.com"}})

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeUnsupportedProvider, appErr.Code)
	assert.Empty(t, ExtractorFor("github").Subject(map[string]any{"id": "1"}))
}

func TestStringAt(t *testing.T) {
	attrs := map[string]any{
		"f":      float64(12345),
		"s":      "x",
		"nested": map[string]any{"list": []any{1}},
	}
	assert.Equal(t, "12345", stringAt(attrs, "f"))
	assert.Equal(t, "x", stringAt(attrs, "s"))
	assert.Empty(t, stringAt(attrs, "nested", "list"))
	assert.Empty(t, stringAt(attrs, "s", "deeper"))
	assert.Empty(t, stringAt(attrs, "absent"))
}
