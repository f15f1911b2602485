package document

import "github.com/paperbase/semsearch/internal/domain"

// Hash field names for the document record.
const (
	fieldOwnerID     = "owner_id"
	fieldName        = "name"
	fieldDescription = "description"
	fieldCategory    = "category"
	fieldDocType     = "doc_type"
	fieldEmbedding   = "embedding"
	fieldGenerated   = "embedding_generated"
)

func docToFields(doc *domain.Document) map[string]string {
	generated := "0"
	if doc.EmbeddingGenerated {
		generated = "1"
	}
	return map[string]string{
		fieldOwnerID:     doc.OwnerID,
		fieldName:        doc.Name,
		fieldDescription: doc.Description,
		fieldCategory:    doc.Category,
		fieldDocType:     doc.DocType,
		fieldEmbedding:   doc.Embedding,
		fieldGenerated:   generated,
	}
}

func docFromFields(id string, fields map[string]string) domain.Document {
	return domain.Document{
		ID:                 id,
		OwnerID:            fields[fieldOwnerID],
		Name:               fields[fieldName],
		Description:        fields[fieldDescription],
		Category:           fields[fieldCategory],
		DocType:            fields[fieldDocType],
		Embedding:          fields[fieldEmbedding],
		EmbeddingGenerated: fields[fieldGenerated] == "1",
	}
}
