package chino

// SchemaOption configures the structure of a schema or user schema.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	fields []SchemaField
	err    error
}

func applySchemaOptions(opts []SchemaOption) schemaConfig {
	var cfg schemaConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// WithField adds a field that is stored but not searchable.
func WithField(name string, ft FieldType) SchemaOption {
	return func(c *schemaConfig) {
		c.fields = append(c.fields, SchemaField{Name: name, Type: ft})
	}
}

// WithIndexedField adds a field that can be used in search filters and sorts.
func WithIndexedField(name string, ft FieldType) SchemaOption {
	return func(c *schemaConfig) {
		c.fields = append(c.fields, SchemaField{Name: name, Type: ft, Indexed: true})
	}
}

// WithFieldsOf adds the fields declared by the chino tags of struct T.
func WithFieldsOf[T any]() SchemaOption {
	return func(c *schemaConfig) {
		meta, err := parseSchema[T]()
		if err != nil {
			c.err = err
			return
		}
		c.fields = append(c.fields, meta.fields...)
	}
}
