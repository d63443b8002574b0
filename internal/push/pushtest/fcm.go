// Package pushtest serves canned FCM v1 responses to a real messaging client.
package pushtest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Response is one canned HTTP answer from the FCM send endpoint
type Response struct {
	Status int
	Body   string
}

// Canned FCM v1 responses
var (
	Sent = Response{
		Status: http.StatusOK,
		Body:   `{"name":"projects/faith-connect/messages/0:1"}`,
	}
	Unregistered = Response{
		Status: http.StatusNotFound,
		Body:   fcmError(404, "Requested entity was not found.", "NOT_FOUND", "UNREGISTERED"),
	}
	MalformedToken = Response{
		Status: http.StatusBadRequest,
		Body:   fcmError(400, "The registration token is not a valid FCM registration token", "INVALID_ARGUMENT", "INVALID_ARGUMENT"),
	}
	MessageTooBig = Response{
		Status: http.StatusBadRequest,
		Body:   fcmError(400, "Message is too big", "INVALID_ARGUMENT", "INVALID_ARGUMENT"),
	}
	InvalidAndroidField = Response{
		Status: http.StatusBadRequest,
		Body:   fcmError(400, "Invalid value at 'message.android.notification.color'", "INVALID_ARGUMENT", "INVALID_ARGUMENT"),
	}
)

func fcmError(code int, message, status, fcmCode string) string {
	return `{"error":{"code":` + strconv.Itoa(code) + `,"message":"` + message + `","status":"` + status +
		`","details":[{"@type":"type.googleapis.com/google.firebase.fcm.v1.FcmError","errorCode":"` + fcmCode + `"}]}}`
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// NewMessagingClient returns a real messaging client whose sends are answered by respond,
// keyed by the target token (empty for topic sends)
func NewMessagingClient(t *testing.T, respond func(token string) Response) *messaging.Client {
	t.Helper()
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		var payload struct {
			Message struct {
				Token string `json:"token"`
			} `json:"message"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&payload)
			r.Body.Close()
		}
		resp := respond(payload.Message.Token)
		return &http.Response{
			StatusCode: resp.Status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(resp.Body)),
			Request:    r,
		}, nil
	})

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: "faith-connect"},
		option.WithHTTPClient(&http.Client{Transport: transport}))
	if err != nil {
		t.Fatalf("firebase.NewApp: %v", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		t.Fatalf("app.Messaging: %v", err)
	}
	return client
}

// Always answers every send with resp
func Always(resp Response) func(string) Response {
	return func(string) Response { return resp }
}
