package web

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hostelStub struct{ Name string }

type reviewData struct {
	State    string
	Hostel   *hostelStub
	FullName string
	Rating   int
	Comment  string
	Errors   map[string]string
}

func TestLoadPages(t *testing.T) {
	pages, err := LoadPages()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = pages.Render(&buf, "review.html", reviewData{
		State:    "pending",
		Hostel:   &hostelStub{Name: "Kilimani Heights"},
		FullName: "Wanjiru",
		Rating:   4,
		Errors:   map[string]string{"comment": "Comment is required"},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Review Kilimani Heights")
	assert.Contains(t, html, `<option value="4" selected>`)
	assert.Contains(t, html, "Comment is required")
}

func TestRender_ReviewStates(t *testing.T) {
	pages := MustLoadPages()

	tests := []struct {
		state string
		want  string
	}{
		{"submitted", "Thank you!"},
		{"consumed", "Review already submitted"},
		{"not_found", "Invitation not found"},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			var buf bytes.Buffer
			data := reviewData{State: tt.state}
			if tt.state != "not_found" {
				data.Hostel = &hostelStub{Name: "Campus View"}
			}
			require.NoError(t, pages.Render(&buf, "review.html", data))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestRender_EmailVerifyStates(t *testing.T) {
	pages := MustLoadPages()

	tests := []struct {
		state string
		want  string
	}{
		{"verified", "Your account now uses new@example.com"},
		{"consumed", "Already confirmed"},
		{"expired", "Link expired"},
		{"conflict", "Address unavailable"},
		{"not_found", "Link not found"},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			var buf bytes.Buffer
			err := pages.Render(&buf, "email_verify.html", struct{ State, Email string }{tt.state, "new@example.com"})
			require.NoError(t, err)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestRender_UnknownPage(t *testing.T) {
	pages := MustLoadPages()
	err := pages.Render(&bytes.Buffer{}, "missing.html", nil)
	assert.Error(t, err)
}
