package services

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ListOptions carries pagination and sorting parameters shared by all list
// endpoints.
type ListOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize clamps pagination values and fills the default sort.
func (o ListOptions) Normalize(defaultSortBy, defaultOrder string) ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = defaultPageLimit
	}
	if o.Limit > maxPageLimit {
		o.Limit = maxPageLimit
	}
	if o.SortBy == "" {
		o.SortBy = defaultSortBy
	}
	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		o.SortOrder = defaultOrder
	}
	return o
}

// Skip returns the document offset for the current page.
func (o ListOptions) Skip() int64 {
	return int64(o.Page-1) * int64(o.Limit)
}

// Sort returns the mongo sort specification.
func (o ListOptions) Sort() bson.D {
	dir := -1
	if o.SortOrder == "asc" {
		dir = 1
	}
	return bson.D{{Key: o.SortBy, Value: dir}}
}

// findPage translates list options into mongo find options.
func findPage(opts ListOptions) *options.FindOptions {
	return options.Find().SetSkip(opts.Skip()).SetLimit(int64(opts.Limit)).SetSort(opts.Sort())
}

// escapeRegex neutralises regex metacharacters in user-supplied search text.
func escapeRegex(s string) string {
	return regexp.QuoteMeta(s)
}

// searchRegex builds a case-insensitive substring matcher.
func searchRegex(term string) primitive.Regex {
	return primitive.Regex{Pattern: escapeRegex(term), Options: "i"}
}

// TaskFilter describes the task list query surface.
type TaskFilter struct {
	Project  string
	Status   string // comma-separated list
	Priority string
	Assignee string // "me", "unassigned", or an id
	Search   string
	DueDate  string // exact-day match, YYYY-MM-DD
	Overdue  bool
}

// Build converts the filter into a mongo query document. The requester id
// resolves the "me" assignee shorthand.
func (f TaskFilter) Build(requester primitive.ObjectID, now time.Time) (bson.M, error) {
	filter := bson.M{}

	if f.Project != "" {
		projectID, err := primitive.ObjectIDFromHex(f.Project)
		if err != nil {
			return nil, (&ValidationError{}).Add("project", "invalid project id", f.Project)
		}
		filter["project"] = projectID
	}

	if f.Status != "" {
		parts := strings.Split(f.Status, ",")
		statuses := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				statuses = append(statuses, s)
			}
		}
		if len(statuses) == 1 {
			filter["status"] = statuses[0]
		} else if len(statuses) > 1 {
			filter["status"] = bson.M{"$in": statuses}
		}
	}

	if f.Priority != "" {
		filter["priority"] = f.Priority
	}

	switch f.Assignee {
	case "":
	case "me":
		filter["assignee"] = requester
	case "unassigned":
		filter["assignee"] = nil
	default:
		assigneeID, err := primitive.ObjectIDFromHex(f.Assignee)
		if err != nil {
			return nil, (&ValidationError{}).Add("assignee", "invalid assignee id", f.Assignee)
		}
		filter["assignee"] = assigneeID
	}

	if f.Search != "" {
		re := searchRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"tags": re},
		}
	}

	if f.DueDate != "" {
		day, err := time.Parse("2006-01-02", f.DueDate)
		if err != nil {
			return nil, (&ValidationError{}).Add("dueDate", "invalid date, expected YYYY-MM-DD", f.DueDate)
		}
		filter["dueDate"] = bson.M{
			"$gte": day,
			"$lt":  day.AddDate(0, 0, 1),
		}
	}

	// overdue intersects with any status/dueDate filters above
	if f.Overdue {
		and, _ := filter["$and"].(bson.A)
		and = append(and,
			bson.M{"dueDate": bson.M{"$lt": now}},
			bson.M{"status": bson.M{"$ne": "completed"}},
		)
		filter["$and"] = and
	}

	return filter, nil
}

// ProjectFilter describes the project list query surface.
type ProjectFilter struct {
	Search   string
	Status   string
	Priority string
}

func (f ProjectFilter) Build() bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.Search != "" {
		re := searchRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
			bson.M{"tags": re},
		}
	}
	return filter
}

// UserFilter describes the user list query surface.
type UserFilter struct {
	Search   string
	Role     string
	IsActive *bool
}

func (f UserFilter) Build() bson.M {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.IsActive != nil {
		filter["isActive"] = *f.IsActive
	}
	if f.Search != "" {
		re := searchRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"email": re},
			bson.M{"department": re},
		}
	}
	return filter
}
