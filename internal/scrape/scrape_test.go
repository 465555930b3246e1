package scrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/intakt/hunter/backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() Form {
	return Form{
		Location:           "Cape Town",
		BusinessType:       []string{"plumber"},
		WebsiteRequirement: WebsiteWithout,
		LeadCount:          50,
	}
}

func TestValidateDefaults(t *testing.T) {
	form := Form{
		Location:     "Cape Town",
		BusinessType: []string{"plumber"},
	}
	require.NoError(t, form.Validate())

	assert.Equal(t, WebsiteAny, form.WebsiteRequirement)
	assert.Equal(t, DefaultLeadCount, form.LeadCount)
}

func TestValidateFirstViolationWins(t *testing.T) {
	tests := []struct {
		name    string
		form    Form
		field   string
		message string
	}{
		{
			name:    "short location",
			form:    Form{Location: "x", BusinessType: []string{"plumber"}},
			field:   "location",
			message: "Location must be at least 2 characters",
		},
		{
			name:    "whitespace location",
			form:    Form{Location: "  a  ", BusinessType: []string{"plumber"}},
			field:   "location",
			message: "Location must be at least 2 characters",
		},
		{
			name:    "single multibyte rune location",
			form:    Form{Location: "é", BusinessType: []string{"plumber"}},
			field:   "location",
			message: "Location must be at least 2 characters",
		},
		{
			name:    "no business types",
			form:    Form{Location: "Cape Town"},
			field:   "businessType",
			message: "At least one business type is required",
		},
		{
			name:    "blank business type",
			form:    Form{Location: "Cape Town", BusinessType: []string{"plumber", "  "}},
			field:   "businessType",
			message: "Business type cannot be empty",
		},
		{
			name:    "lead count too low",
			form:    Form{Location: "Cape Town", BusinessType: []string{"plumber"}, LeadCount: 5},
			field:   "leadCount",
			message: "Minimum 10 leads",
		},
		{
			name:    "lead count too high",
			form:    Form{Location: "Cape Town", BusinessType: []string{"plumber"}, LeadCount: 500},
			field:   "leadCount",
			message: "Maximum 200 leads",
		},
		{
			name:    "bad website requirement",
			form:    Form{Location: "Cape Town", BusinessType: []string{"plumber"}, WebsiteRequirement: "maybe"},
			field:   "websiteRequirement",
			message: "Website requirement must be with, without or any",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.form.Validate()
			require.Error(t, err)

			apiErr, ok := err.(*apierrors.APIError)
			require.True(t, ok)
			assert.Equal(t, tc.field, apiErr.Field)
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestStartPostsEnvelope(t *testing.T) {
	var captured map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)
	clientQueryID, err := client.Start(context.Background(), "user-1", validForm())
	require.NoError(t, err)
	assert.NotEmpty(t, clientQueryID)

	// The payload sits one level down, under "body".
	require.Contains(t, captured, "body")
	var payload Payload
	require.NoError(t, json.Unmarshal(captured["body"], &payload))

	assert.Equal(t, clientQueryID, payload.ClientQueryID)
	assert.Equal(t, "Cape Town", payload.Location)
	assert.Equal(t, []string{"plumber"}, payload.BusinessType)
	assert.Equal(t, WebsiteWithout, payload.WebsiteRequirement)
	assert.Equal(t, 50, payload.LeadCount)
	assert.Equal(t, "user-1", payload.UserID)
}

func TestStartGeneratesFreshIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)

	first, err := client.Start(context.Background(), "user-1", validForm())
	require.NoError(t, err)
	second, err := client.Start(context.Background(), "user-1", validForm())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestStartValidatesBeforeNetwork(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)

	_, err := client.Start(context.Background(), "user-1", Form{})
	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestStartRequiresUser(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)

	_, err := client.Start(context.Background(), "", validForm())
	assert.ErrorIs(t, err, ErrNoUser)
	assert.Equal(t, 0, calls)
}

func TestStartSurfacesWebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("workflow offline"))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)

	_, err := client.Start(context.Background(), "user-1", validForm())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "workflow offline")
}

func TestStartUnconfiguredWebhook(t *testing.T) {
	client := NewClient("", nil, nil)

	_, err := client.Start(context.Background(), "user-1", validForm())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestLastFormMissWithoutCache(t *testing.T) {
	client := NewClient("http://unused.invalid", nil, nil)

	form, found := client.LastForm(context.Background(), "user-1")
	assert.False(t, found)
	assert.Nil(t, form)
}
