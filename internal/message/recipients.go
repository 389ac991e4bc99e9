package message

// Recipients is a resolved destination for an outgoing message. Exactly one
// shape applies: To for a direct message, ToMany for a group message, and
// neither for a broadcast. The single/group distinction matters because the
// wire format represents them differently.
type Recipients struct {
	To     string
	ToMany []string
}

// Audience reports the shape of the resolved destination.
func (r Recipients) Audience() Audience {
	switch {
	case r.To != "":
		return AudienceDirect
	case len(r.ToMany) > 0:
		return AudienceGroup
	default:
		return AudienceBroadcast
	}
}

// ResolveReply computes where a reply to src should be delivered when sent
// by actingUser. It is pure and deterministic.
//
// Group source: the destination is the group's recipient set minus the
// acting user, plus the original sender when the acting user is not the
// sender and the sender is not already included. A result of exactly one id
// collapses to a direct reply; two or more stay a group.
//
// Direct or broadcast source sent by the acting user: the reply keeps the
// original conversation partner, or stays a broadcast for a broadcast.
//
// Anything else replies to the original sender.
func ResolveReply(src Message, actingUser string) Recipients {
	if src.Audience() == AudienceGroup {
		return resolveGroupReply(src, actingUser)
	}

	if src.SenderID == actingUser {
		if src.Audience() == AudienceBroadcast {
			return Recipients{}
		}
		return Recipients{To: src.RecipientID}
	}

	return Recipients{To: src.SenderID}
}

// ResolveForward always resolves to a broadcast: the forwarding user picks
// new recipients explicitly and never inherits the original ones.
func ResolveForward() Recipients {
	return Recipients{}
}

func resolveGroupReply(src Message, actingUser string) Recipients {
	set := make([]string, 0, len(src.RecipientIDs)+1)
	included := make(map[string]bool, len(src.RecipientIDs)+1)
	for _, id := range src.RecipientIDs {
		if id == actingUser || included[id] {
			continue
		}
		included[id] = true
		set = append(set, id)
	}
	if actingUser != src.SenderID && !included[src.SenderID] {
		set = append(set, src.SenderID)
	}

	switch len(set) {
	case 0:
		// The acting user was the sole participant; nothing sensible to
		// target, fall back to broadcast.
		return Recipients{}
	case 1:
		return Recipients{To: set[0]}
	default:
		return Recipients{ToMany: set}
	}
}
