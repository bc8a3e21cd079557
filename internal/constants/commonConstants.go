package constants

type (
	APIStatus        string
	CachePrefix      string
	CollectionName   string
	ActivityType     string
	NotificationType string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixMemberRoles CachePrefix = "ROLES_"
	CachePrefixOAuthState  CachePrefix = "OAUTH_STATE_"
)

const (
	CollectionApplications     CollectionName = "applications"
	CollectionArchive          CollectionName = "archived-applications"
	CollectionApplicationTypes CollectionName = "application-types"
	CollectionBans             CollectionName = "bans"
	CollectionBlacklist        CollectionName = "blacklist"
	CollectionActivityLog      CollectionName = "activity-log"
	CollectionNotifications    CollectionName = "admin-notifications"
)

// AllCollections lists every collection the service owns, used by backups.
var AllCollections = []CollectionName{
	CollectionApplications,
	CollectionArchive,
	CollectionApplicationTypes,
	CollectionBans,
	CollectionBlacklist,
	CollectionActivityLog,
	CollectionNotifications,
}

const (
	ActivityApplicationSubmitted ActivityType = "application_submitted"
	ActivityStatusChanged        ActivityType = "application_status_changed"
	ActivityArchived             ActivityType = "application_archived"
	ActivityNoteAdded            ActivityType = "application_note_added"
	ActivityPriorityChanged      ActivityType = "application_priority_changed"
	ActivityAssigned             ActivityType = "application_assigned"
	ActivityBulkAction           ActivityType = "application_bulk_action"
	ActivityTypeCreated          ActivityType = "application_type_created"
	ActivityTypeUpdated          ActivityType = "application_type_updated"
	ActivityTypeDeleted          ActivityType = "application_type_deleted"
	ActivityBanAdded             ActivityType = "ban_added"
	ActivityBanRemoved           ActivityType = "ban_removed"
	ActivityBlacklistAdded       ActivityType = "blacklist_added"
	ActivityBlacklistRemoved     ActivityType = "blacklist_removed"
	ActivityLogin                ActivityType = "login"
)

const (
	NotificationNewApplication NotificationType = "new_application"
	NotificationStatusChanged  NotificationType = "application_status_changed"
	NotificationArchived       NotificationType = "application_archived"
)

// MaxNotifications caps the admin notification feed.
const MaxNotifications = 500
