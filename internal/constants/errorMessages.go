package constants

const (
	MsgBanned            = "You are banned from submitting applications"
	MsgBlacklisted       = "You are blacklisted from submitting applications"
	MsgPendingDuplicate  = "You already have a pending application of this type"
	MsgAlreadyApproved   = "You have already been approved for this application type"
	MsgCooldownActive    = "You must wait %d more day(s) before reapplying"
	MsgEligible          = "You can submit an application"
	MsgEligibleAfterDeny = "Your cooldown has ended, you can reapply"
)

const (
	MsgApplicationNotFound = "Application not found"
	MsgTypeNotFound        = "Application type not found"
	MsgTypeExists          = "An application type with this id already exists"
	MsgInvalidStatus       = "Status must be approved or denied"
	MsgInvalidPriority     = "Priority must be one of low, normal, high, urgent"
	MsgAlreadyReviewed     = "Application has already been reviewed"
	MsgEntryNotFound       = "Entry not found"
)
