package notmuch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMessage = `{
	"id": "87example@host",
	"timestamp": 1700000000,
	"date_relative": "Yest. 10:01",
	"tags": ["inbox", "unread"],
	"filename": ["/mail/cur/1700000000.host:2,"],
	"headers": {
		"Subject": "Quarterly numbers",
		"From": "Ana Ruiz <ana@example.com>",
		"To": "team@example.com",
		"Date": "Thu, 14 Nov 2023 10:01:00 +0100"
	},
	"body": [
		{
			"id": 1,
			"content-type": "multipart/mixed",
			"content": [
				{"id": 2, "content-type": "text/plain", "content": "see attached\n"},
				{
					"id": 3,
					"content-type": "application/pdf",
					"content-disposition": "attachment",
					"filename": "q3.pdf"
				},
				{
					"id": 4,
					"content-type": "image/png",
					"content-id": "<logo@example.com>",
					"filename": "logo.png"
				}
			]
		}
	]
}`

func TestMessage_Unmarshal(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(sampleMessage), &m))

	assert.Equal(t, "87example@host", m.ID)
	assert.Equal(t, int64(1700000000), m.Timestamp)
	assert.True(t, m.IsUnread())
	assert.Equal(t, []string{"/mail/cur/1700000000.host:2,"}, m.Filenames)
	assert.Equal(t, "Quarterly numbers", m.Header("Subject"))
	assert.Equal(t, "Quarterly numbers", m.Header("subject"))
	assert.Empty(t, m.Header("Cc"))

	require.Len(t, m.Body, 1)
	require.Len(t, m.Body[0].Children, 3)
	assert.Equal(t, "see attached\n", m.Body[0].Children[0].Content)
}

func TestMessage_FilenameAcceptsSingleString(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","filename":"/mail/new/1"}`), &m))
	assert.Equal(t, []string{"/mail/new/1"}, m.Filenames)
}

func TestMessage_FirstPart(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(sampleMessage), &m))

	plain := m.FirstPart("text/plain")
	require.NotNil(t, plain)
	assert.Equal(t, 2, plain.ID)
	assert.Nil(t, m.FirstPart("text/html"))
}

func TestMessage_PartByContentID(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(sampleMessage), &m))

	for _, ref := range []string{"logo@example.com", "<logo@example.com>", "cid:logo@example.com"} {
		p := m.PartByContentID(ref)
		require.NotNil(t, p, "reference %q should resolve", ref)
		assert.Equal(t, "logo.png", p.Filename)
	}

	assert.Nil(t, m.PartByContentID("missing@example.com"))
	assert.Nil(t, m.PartByContentID(""))
}

func TestMessage_Attachments(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(sampleMessage), &m))

	atts := m.Attachments()
	require.Len(t, atts, 1)
	assert.Equal(t, "q3.pdf", atts[0].Filename)
}

func TestThreadNode_Unmarshal(t *testing.T) {
	data := `[[{"id":"root","timestamp":1},[{"id":"reply","timestamp":2},[]]]]`

	var root ThreadNode
	require.NoError(t, json.Unmarshal([]byte(data), &root))
	require.NotNil(t, root.Branch)
	assert.Nil(t, root.Leaf)

	msgs, err := Flatten(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "reply"}, idsOf(msgs))
}

func TestThreadNode_NullBecomesMalformed(t *testing.T) {
	var root ThreadNode
	require.NoError(t, json.Unmarshal([]byte(`[null]`), &root))

	_, err := Flatten(root)
	assert.ErrorIs(t, err, ErrMalformedThread)
}

func TestSearchRow_Unmarshal(t *testing.T) {
	data := `[{
		"thread": "0000000000000a01",
		"timestamp": 1700000000,
		"date_relative": "today",
		"matched": 1,
		"total": 3,
		"authors": "Ana Ruiz, Ben",
		"subject": "Quarterly numbers",
		"tags": ["inbox", "unread"]
	}]`

	var rows []*SearchRow
	require.NoError(t, json.Unmarshal([]byte(data), &rows))
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "0000000000000a01", r.ThreadID)
	assert.Equal(t, "Ana Ruiz, Ben", r.Authors)
	assert.True(t, r.IsUnread())
	assert.False(t, r.HasTag("flagged"))
}
