package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"taskflow/backend/logging"
	"taskflow/backend/models"
	"taskflow/backend/utils"
)

type UserService struct {
	UserCollection *mongo.Collection
}

func NewUserService(userCollection *mongo.Collection) *UserService {
	return &UserService{UserCollection: userCollection}
}

// RegisterUser validates input, hashes the password and stores the user.
// Emails are stored lowercased so uniqueness is case-insensitive.
func (s *UserService) RegisterUser(ctx context.Context, user models.User) (*models.User, error) {
	v := &ValidationError{}
	if strings.TrimSpace(user.Name) == "" {
		v.Add("name", "name is required", user.Name)
	}
	if strings.TrimSpace(user.Email) == "" {
		v.Add("email", "email is required", user.Email)
	} else if !strings.Contains(user.Email, "@") {
		v.Add("email", "invalid email address", user.Email)
	}
	if err := utils.ValidatePassword(user.Password); err != nil {
		v.Add("password", err.Error(), nil)
	}
	if user.Role != "" && !models.ValidRole(user.Role) {
		v.Add("role", "unknown role", user.Role)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Name = html.EscapeString(strings.TrimSpace(user.Name))
	user.Department = html.EscapeString(user.Department)

	var existing models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": user.Email}).Decode(&existing); err == nil {
		return nil, fmt.Errorf("%w: user with this email already exists", ErrConflict)
	}

	hashed, err := utils.HashPassword(user.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hashed

	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.IsActive = true
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.ID = primitive.NewObjectID()

	if _, err := s.UserCollection.InsertOne(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %v", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered.", user.Email)

	user.Password = ""
	return &user, nil
}

// LoginUser verifies credentials, refreshes lastLogin and issues a token.
func (s *UserService) LoginUser(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return models.User{}, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	if err := utils.CheckPassword(user.Password, password); err != nil {
		return models.User{}, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	if !user.IsActive {
		return models.User{}, "", fmt.Errorf("%w: account is deactivated", ErrUnauthorized)
	}

	now := time.Now()
	user.LastLogin = &now
	_, err = s.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"lastLogin": now}})
	if err != nil {
		logging.Logger.Warnf("Event ID: LAST_LOGIN_UPDATE_FAILED, Description: Failed to refresh lastLogin for %s: %v", email, err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		return models.User{}, "", fmt.Errorf("failed to generate token: %v", err)
	}

	user.Password = ""
	return user, token, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	userID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrNotFound)
	}

	var user models.User
	err = s.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", ErrNotFound)
	}

	user.Password = ""
	return &user, nil
}

// ListUsers returns a filtered, paginated user page.
func (s *UserService) ListUsers(ctx context.Context, filter UserFilter, opts ListOptions) ([]models.User, models.Pagination, error) {
	opts = opts.Normalize("createdAt", "desc")
	query := filter.Build()

	total, err := s.UserCollection.CountDocuments(ctx, query)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count users: %v", err)
	}

	cursor, err := s.UserCollection.Find(ctx, query, findPage(opts))
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to fetch users: %v", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to decode users: %v", err)
	}

	for i := range users {
		users[i].Password = ""
	}

	return users, models.NewPagination(opts.Page, opts.Limit, total), nil
}

// UpdateUser changes profile fields. Only the user themselves or a global
// admin may update; role changes are admin-only.
func (s *UserService) UpdateUser(ctx context.Context, id string, requester *utils.Claims, changes map[string]interface{}) (*models.User, error) {
	userID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrNotFound)
	}

	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: user not found", ErrNotFound)
	}

	if requester.UserID != id && requester.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: cannot update another user's profile", ErrForbidden)
	}

	update := bson.M{"updatedAt": time.Now()}
	if name, ok := changes["name"].(string); ok && strings.TrimSpace(name) != "" {
		update["name"] = html.EscapeString(strings.TrimSpace(name))
	}
	if department, ok := changes["department"].(string); ok {
		update["department"] = html.EscapeString(department)
	}
	if role, ok := changes["role"].(string); ok {
		if requester.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: only admins can change roles", ErrForbidden)
		}
		if !models.ValidRole(role) {
			return nil, (&ValidationError{}).Add("role", "unknown role", role)
		}
		update["role"] = role
	}

	if _, err := s.UserCollection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": update}); err != nil {
		return nil, fmt.Errorf("failed to update user: %v", err)
	}

	return s.GetUserByID(ctx, id)
}

// DeactivateUser soft-deletes an account: users are never hard-deleted.
func (s *UserService) DeactivateUser(ctx context.Context, id string, requester *utils.Claims) error {
	if requester.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only admins can deactivate accounts", ErrForbidden)
	}

	userID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid user id", ErrNotFound)
	}

	result, err := s.UserCollection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: user not found", ErrNotFound)
	}

	logging.Logger.Infof("Event ID: USER_DEACTIVATED, Description: User %s deactivated by %s.", id, requester.UserID)
	return nil
}
