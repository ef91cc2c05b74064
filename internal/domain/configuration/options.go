package configuration

// ListOptions provides filtering options for listing configurations.
type ListOptions struct {
	ActiveOnly      bool
	BlockCollection string
}
