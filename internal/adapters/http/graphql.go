package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	analysisType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Analysis",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"coordinates": &graphql.Field{Type: graphql.NewList(coordinateType)},
			"start_date":  &graphql.Field{Type: graphql.String},
			"end_date":    &graphql.Field{Type: graphql.String},
			"mean_ndvi":   &graphql.Field{Type: graphql.Float},
			"observed_at": &graphql.Field{Type: graphql.DateTime},
			"area_ha":     &graphql.Field{Type: graphql.Float},
			"perimeter_m": &graphql.Field{Type: graphql.Float},
			"created_at":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	cropPriceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CropPrice",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"name":           &graphql.Field{Type: graphql.String},
			"price_per_unit": &graphql.Field{Type: graphql.Float},
			"currency":       &graphql.Field{Type: graphql.String},
			"unit":           &graphql.Field{Type: graphql.String},
			"change_percent": &graphql.Field{Type: graphql.Float},
			"trend":          &graphql.Field{Type: graphql.String},
			"updated_at":     &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"analyses": &graphql.Field{
				Type:        graphql.NewList(analysisType),
				Description: "Most recent NDVI analyses, newest first",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit, _ := p.Args["limit"].(int)
					return deps.NDVI.History(p.Context, limit)
				},
			},
			"analysis": &graphql.Field{
				Type:        analysisType,
				Description: "Get a recorded analysis by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					return deps.NDVI.GetByID(p.Context, id)
				},
			},
			"prices": &graphql.Field{
				Type:        graphql.NewList(cropPriceType),
				Description: "Crop market prices, filtered by a case-insensitive name fragment",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q, _ := p.Args["query"].(string)
					return deps.Prices.Search(p.Context, q)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
