package types

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

type MemberChangeReason string

const (
	MemberChangeReasonPayment    MemberChangeReason = "payment"
	MemberChangeReasonDecay      MemberChangeReason = "decay"
	MemberChangeReasonAdminGrant MemberChangeReason = "adminGrant"
)
