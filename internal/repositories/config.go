package repositories

type Config struct {
	// MaxRecordSize bounds a partial record kept between chunks of one stream.
	MaxRecordSize int
}
