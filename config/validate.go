package config

import (
	"errors"
	"fmt"
)

// Validate checks every section. Errors from all sections are joined.
func (c *Config) Validate() error {
	return errors.Join(c.ValidateAI(), c.ValidateConverter(), c.ValidateIndex(), c.validateLimits())
}

// ValidateAI checks the settings needed by the selected AI provider.
func (c *Config) ValidateAI() error {
	a := c.AI
	var errs []error
	switch a.Provider {
	case "openai":
		if a.Host == "" {
			errs = append(errs, missing("ai.host"))
		}
	case "azure":
		if a.Host == "" {
			errs = append(errs, missing("AZURE_OPENAI_ENDPOINT"))
		}
		if a.AnalystModel == "" {
			errs = append(errs, missing("AZURE_OPENAI_DEPLOYMENT_NAME"))
		}
		if a.APIKey == "" {
			errs = append(errs, missing("AZURE_OPENAI_API_KEY"))
		}
	case "gemini":
		if a.APIKey == "" {
			errs = append(errs, missing("GEMINI_API_KEY"))
		}
	default:
		errs = append(errs, unknown("ai", a.Provider))
	}
	return errors.Join(errs...)
}

// ValidateConverter checks the settings needed by the selected converter.
func (c *Config) ValidateConverter() error {
	switch c.Converter.Type {
	case ConverterDocconv:
		return nil
	case ConverterDocIntel:
		var errs []error
		if c.Converter.Endpoint == "" {
			errs = append(errs, missing("DOC_INTEL_ENDPOINT"))
		}
		if c.Converter.APIKey == "" {
			errs = append(errs, missing("DOCUMENT_INTELLIGENCE_KEY"))
		}
		return errors.Join(errs...)
	default:
		return unknown("converter", c.Converter.Type)
	}
}

// ValidateIndex checks the settings needed by the selected index backend.
func (c *Config) ValidateIndex() error {
	ix := c.Index
	var errs []error
	switch ix.Type {
	case IndexAzure:
		if ix.Azure.Endpoint == "" {
			errs = append(errs, missing("AZURE_SEARCH_SERVICE_ENDPOINT"))
		}
		if ix.Azure.IndexName == "" {
			errs = append(errs, missing("AZURE_SEARCH_INDEX_NAME"))
		}
		if ix.Azure.APIKey == "" {
			errs = append(errs, missing("AZURE_SEARCH_API_KEY"))
		}
	case IndexBadger:
		if ix.Badger.Path == "" && !ix.Badger.InMemory {
			errs = append(errs, missing("index.badger.path"))
		}
	case IndexMongo:
		if ix.Mongo.URI == "" {
			errs = append(errs, missing("MONGODB_URI"))
		}
	case IndexPostgres:
		if ix.Postgres.DatabaseURL == "" {
			errs = append(errs, missing("DATABASE_URL"))
		}
	default:
		errs = append(errs, unknown("index", ix.Type))
	}
	return errors.Join(errs...)
}

func (c *Config) validateLimits() error {
	in := c.Ingestion
	var errs []error
	positive := func(name string, v int) {
		if v < 1 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidSetting, name, v))
		}
	}
	positive("ingestion.max_id_length", in.MaxIDLength)
	positive("ingestion.batch_max_tokens", in.BatchMaxTokens)
	positive("ingestion.batch_max_items", in.BatchMaxItems)
	positive("ingestion.single_shot_limit", in.SingleShotLimit)
	positive("ingestion.section_tokens", in.SectionTokens)
	positive("indexing.max_docs", c.Indexing.MaxDocs)
	positive("indexing.max_bytes", c.Indexing.MaxBytes)
	positive("indexing.vector_dimensions", c.Indexing.VectorDimensions)
	if in.SectionOverlap < 0 || in.SectionOverlap >= in.SectionTokens {
		errs = append(errs, fmt.Errorf("%w: ingestion.section_overlap %d must be below section_tokens", ErrInvalidSetting, in.SectionOverlap))
	}
	return errors.Join(errs...)
}
