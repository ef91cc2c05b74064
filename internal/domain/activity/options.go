package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	Configuration string
	Collection    string
	RecordID      string
	ActivityType  *ActivityType
	Limit         int
	Offset        int
}
