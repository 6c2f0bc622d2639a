package service

// QueueConfig bounds the dispatch queue of one host application.
type QueueConfig struct {
	Size int
}

func DefaultQueueConfig() QueueConfig {
	return QueueConfig{Size: 32}
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.Size <= 0 {
		c.Size = DefaultQueueConfig().Size
	}
	return c
}
