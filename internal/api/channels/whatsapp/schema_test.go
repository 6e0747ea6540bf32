package whatsapp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstMessageTextPayload(t *testing.T) {
	raw := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "123",
			"changes": [{
				"value": {
					"messaging_product": "whatsapp",
					"metadata": {"display_phone_number": "911234567890", "phone_number_id": "555"},
					"contacts": [{"profile": {"name": "Asha"}, "wa_id": "919876543210"}],
					"messages": [{
						"from": "919876543210",
						"id": "wamid.ABC",
						"timestamp": "1714000000",
						"type": "text",
						"text": {"body": "hi there"}
					}]
				},
				"field": "messages"
			}]
		}]
	}`

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	msg := payload.FirstMessage()
	require.NotNil(t, msg)
	require.Equal(t, "text", msg.Type)
	require.Equal(t, "919876543210", msg.From)
	require.Equal(t, "wamid.ABC", msg.ID)
	require.Equal(t, "hi there", msg.Text.Body)
}

func TestFirstMessageListReply(t *testing.T) {
	raw := `{
		"entry": [{
			"changes": [{
				"value": {
					"messages": [{
						"from": "919876543210",
						"id": "wamid.DEF",
						"type": "interactive",
						"interactive": {
							"type": "list_reply",
							"list_reply": {"id": "menu_book", "title": "Book Test Ride"}
						}
					}]
				}
			}]
		}]
	}`

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	msg := payload.FirstMessage()
	require.NotNil(t, msg)
	require.Equal(t, "list_reply", msg.Interactive.Type)
	require.Equal(t, "menu_book", msg.Interactive.ListReply.ID)
	require.Equal(t, "Book Test Ride", msg.Interactive.ListReply.Title)
}

func TestFirstMessageFlowSubmission(t *testing.T) {
	raw := `{
		"entry": [{
			"changes": [{
				"value": {
					"messages": [{
						"from": "919876543210",
						"id": "wamid.GHI",
						"type": "interactive",
						"interactive": {
							"type": "nfm_reply",
							"nfm_reply": {
								"response_json": "{\"name\":\"Asha\",\"phone\":\"919876543210\",\"email\":\"asha@example.com\",\"city\":\"Chennai\",\"date\":\"2026-09-05\",\"time\":\"11:00\"}",
								"name": "flow"
							}
						}
					}]
				}
			}]
		}]
	}`

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	msg := payload.FirstMessage()
	require.NotNil(t, msg)
	require.Equal(t, "nfm_reply", msg.Interactive.Type)

	var submission BookingSubmission
	require.NoError(t, json.Unmarshal([]byte(msg.Interactive.NfmReply.ResponseJSON), &submission))
	require.Equal(t, "Asha", submission.Name)
	require.Equal(t, "Chennai", submission.City)
	require.Equal(t, "11:00", submission.Time)
}

func TestFirstMessageEmptyPayload(t *testing.T) {
	var payload WebhookPayload
	require.Nil(t, payload.FirstMessage())

	require.NoError(t, json.Unmarshal([]byte(`{"entry":[{"changes":[{"value":{}}]}]}`), &payload))
	require.Nil(t, payload.FirstMessage())
}
