package mongodb

import (
	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// taskFilter translates the filter part of q. Owner is always present; status
// only when requested.
func taskFilter(q store.TaskQuery) (bson.M, error) {
	ownerID, err := parseID(q.OwnerID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{domain.FieldOwner: ownerID}
	if q.Status != "" {
		filter[domain.FieldStatus] = q.Status
	}
	return filter, nil
}

// findOptions translates sorting and paging. Without OrderBy the natural
// order is kept; with it, _id breaks ties so pages do not overlap.
func findOptions(q store.TaskQuery) *options.FindOptions {
	opts := options.Find().SetSkip(q.Skip).SetLimit(q.Limit)
	if q.OrderBy != "" {
		sort := bson.D{{Key: q.OrderBy, Value: 1}}
		if q.OrderBy != domain.FieldID {
			sort = append(sort, bson.E{Key: domain.FieldID, Value: 1})
		}
		opts.SetSort(sort)
	}
	return opts
}

// taskUpdateDocument builds the $set (and, for a cleared status, $unset)
// update for upd.
func taskUpdateDocument(upd domain.TaskUpdate) (bson.M, error) {
	set := bson.M{}
	for k, v := range upd.Fields {
		set[k] = v
	}
	set[domain.FieldUpdatedAt] = upd.UpdatedAt

	if upd.OwnerID != nil {
		ownerID, err := parseID(*upd.OwnerID)
		if err != nil {
			return nil, err
		}
		set[domain.FieldOwner] = ownerID
	}

	update := bson.M{}
	if upd.Status != nil {
		if *upd.Status == "" {
			update["$unset"] = bson.M{domain.FieldStatus: ""}
		} else {
			set[domain.FieldStatus] = *upd.Status
		}
	}
	update["$set"] = set
	return update, nil
}
