package mongodb

import (
    "github.com/walletera/eventstore-tables/internal/domain/tables"

    "go.mongodb.org/mongo-driver/v2/bson"
)

var operators = map[tables.Op]string{
    tables.Eq: "$eq",
    tables.Gt: "$gt",
    tables.Ge: "$gte",
    tables.Lt: "$lt",
    tables.Le: "$lte",
}

func toBSON(filter tables.Filter) (bson.D, error) {
    if err := filter.Validate(); err != nil {
        return nil, err
    }

    query := bson.D{}
    if pk, ok := filter.PartitionKey.Get(); ok {
        query = append(query, bson.E{Key: "_id.partitionKey", Value: pk})
    }
    if len(filter.Conditions) == 0 {
        return query, nil
    }

    // the same column may appear twice, e.g. a revision range
    clauses := bson.A{}
    for _, c := range filter.Conditions {
        clauses = append(clauses, bson.D{{c.Column, bson.D{{operators[c.Op], c.Value}}}})
    }
    return append(query, bson.E{Key: "$and", Value: clauses}), nil
}
