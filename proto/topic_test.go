package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopicStringParse(t *testing.T) {
	cases := []struct {
		topic Topic
		wire  string
	}{
		{BroadcastTopic("r1"), "/topic/r1/messages"},
		{OccupancyTopic("r1"), "/topic/r1/occupancy"},
		{BroadcastTopic(DefaultRoom), "/topic/public/messages"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.wire, tc.topic.String())

		got, err := ParseTopic(tc.wire)
		require.NoError(t, err)
		require.Equal(t, tc.topic, got)
	}
}

func TestParseTopicRejectsBadForms(t *testing.T) {
	for _, wire := range []string{
		"",
		"/topic/",
		"/topic/r1",
		"/topic/r1/presence",
		"/queue/r1/messages",
		"/topic//messages",
	} {
		_, err := ParseTopic(wire)
		require.Error(t, err, "wire %q", wire)
	}
}
