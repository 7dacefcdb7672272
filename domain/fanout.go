package domain

// FanoutThreshold is the member count at which a send stops being
// written per recipient and becomes a single append to the shared
// conversation log.
const FanoutThreshold = 500

// SelectDeliveryMode picks the delivery mode for one send from the
// membership size at that instant. The result is never cached across
// the conversation's lifetime: the next send evaluates again.
func SelectDeliveryMode(memberCount int) DeliveryMode {
	if memberCount < FanoutThreshold {
		return DeliveryFanout
	}
	return DeliveryPull
}
