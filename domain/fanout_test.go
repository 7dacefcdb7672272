package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Select_Delivery_Mode(t *testing.T) {
	req := require.New(t)

	req.Equal(DeliveryFanout, SelectDeliveryMode(0))
	req.Equal(DeliveryFanout, SelectDeliveryMode(2))
	req.Equal(DeliveryFanout, SelectDeliveryMode(499))
	req.Equal(DeliveryPull, SelectDeliveryMode(500))
	req.Equal(DeliveryPull, SelectDeliveryMode(600))
}

func Test_Conversation_Active(t *testing.T) {
	req := require.New(t)

	active := Conversation{ID: "c1", Status: ConversationActive}
	dissolved := Conversation{ID: "c2", Status: ConversationDissolved}

	req.True(active.Active())
	req.False(dissolved.Active())
}

func Test_Frame_Control(t *testing.T) {
	req := require.New(t)

	req.True(Frame{Command: CmdAuth}.Control())
	req.True(Frame{Command: CmdHeartbeat}.Control())
	req.False(Frame{Command: 42}.Control())
}
