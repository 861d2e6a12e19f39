// Package chino provides a Go client for the Chino.io document and identity
// API: repositories, schemas, documents, user schemas, users, groups,
// collections, permissions, consents, user authentication and search.
//
// # Search
//
// Search requests can be built fluently; the builder checks call order and
// reports the first mistake when the request is built or sent:
//
//	client, _ := chino.New(chino.WithCustomerCredentials(id, key))
//	res, err := client.Search().
//	    Where("patient_id").Eq("abc-123").
//	    Or("visit_type").In([]string{"routine", "insurance"}).
//	    SortAscBy("date").
//	    Documents(ctx, schemaID)
//
// or from plain option lists, which serialize to the same body:
//
//	req := chino.SearchRequest{
//	    FilterType: chino.FilterOr,
//	    Filter: []chino.FilterOption{
//	        {Field: "patient_id", Type: "eq", Value: "abc-123"},
//	    },
//	}
//	res, err := client.Search().Documents(ctx, schemaID, req, chino.ListOptions{})
//
// # Typed documents
//
//	type Visit struct {
//	    ID        string    `chino:",id"`
//	    PatientID string    `chino:"patient_id,string,indexed"`
//	    Date      time.Time `chino:"date,datetime,indexed"`
//	}
//
//	visits, _ := chino.NewTypedDocuments[Visit](client, schemaID)
//	id, _ := visits.Create(ctx, Visit{PatientID: "abc-123", Date: time.Now()})
package chino
