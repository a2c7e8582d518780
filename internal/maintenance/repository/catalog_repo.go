package repository

import (
	"context"
	"strings"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"gorm.io/gorm"
)

// UserRepository user lookups
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		user.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

type UserListParams struct {
	Role     string
	IsActive *bool
	Keyword  string
	Page     int
	PageSize int
}

func (r *UserRepository) List(ctx context.Context, params UserListParams) ([]entity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.User{})
	if params.Role != "" {
		query = query.Where("role = ?", params.Role)
	}
	if params.IsActive != nil {
		query = query.Where("is_active = ?", *params.IsActive)
	}
	if params.Keyword != "" {
		kw := "%" + strings.ToLower(params.Keyword) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(full_name) LIKE ?", kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entity.User
	err := query.Order("username ASC").
		Scopes(paginate(params.Page, params.PageSize)).
		Find(&items).Error
	return items, total, err
}

func (r *UserRepository) Updates(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Updates(fields).Error
}

// DepartmentRepository departments
type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *entity.Department) error {
	if dept.ID == "" {
		dept.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*entity.Department, error) {
	var dept entity.Department
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error; err != nil {
		return nil, notFound(err)
	}
	return &dept, nil
}

func (r *DepartmentRepository) FindByName(ctx context.Context, name string) (*entity.Department, error) {
	var dept entity.Department
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&dept).Error; err != nil {
		return nil, notFound(err)
	}
	return &dept, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]entity.Department, error) {
	var items []entity.Department
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *DepartmentRepository) Update(ctx context.Context, dept *entity.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Department{}).Error
}

// MachineRepository machines
type MachineRepository struct {
	db *gorm.DB
}

func NewMachineRepository(db *gorm.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

func (r *MachineRepository) WithTx(tx *gorm.DB) *MachineRepository {
	return &MachineRepository{db: tx}
}

func (r *MachineRepository) Create(ctx context.Context, machine *entity.Machine) error {
	if machine.ID == "" {
		machine.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(machine).Error
}

func (r *MachineRepository) FindByID(ctx context.Context, id string) (*entity.Machine, error) {
	var machine entity.Machine
	if err := r.db.WithContext(ctx).Preload("Department").Where("id = ?", id).First(&machine).Error; err != nil {
		return nil, notFound(err)
	}
	return &machine, nil
}

func (r *MachineRepository) FindByQRCode(ctx context.Context, code string) (*entity.Machine, error) {
	var machine entity.Machine
	if err := r.db.WithContext(ctx).Preload("Department").Where("qr_code = ?", code).First(&machine).Error; err != nil {
		return nil, notFound(err)
	}
	return &machine, nil
}

// CountByDepartment machines still attached to a department
func (r *MachineRepository) CountByDepartment(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Machine{}).Where("department_id = ?", departmentID).Count(&count).Error
	return count, err
}

type MachineListParams struct {
	DepartmentID string
	Status       string
	Keyword      string
	Page         int
	PageSize     int
}

func (r *MachineRepository) List(ctx context.Context, params MachineListParams) ([]entity.Machine, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Machine{})
	if params.DepartmentID != "" {
		query = query.Where("department_id = ?", params.DepartmentID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := "%" + strings.ToLower(params.Keyword) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(serial_number) LIKE ? OR LOWER(qr_code) LIKE ?", kw, kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entity.Machine
	err := query.Preload("Department").
		Order("name ASC").
		Scopes(paginate(params.Page, params.PageSize)).
		Find(&items).Error
	return items, total, err
}

func (r *MachineRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&entity.Machine{}).Where("id = ?", id).Update("status", status).Error
}

// CategoryRepository spare part categories
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *entity.SparePartCategory) error {
	if category.ID == "" {
		category.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*entity.SparePartCategory, error) {
	var category entity.SparePartCategory
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]entity.SparePartCategory, error) {
	query := r.db.WithContext(ctx).Model(&entity.SparePartCategory{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var items []entity.SparePartCategory
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

// FailureCodeRepository failure code catalog
type FailureCodeRepository struct {
	db *gorm.DB
}

func NewFailureCodeRepository(db *gorm.DB) *FailureCodeRepository {
	return &FailureCodeRepository{db: db}
}

func (r *FailureCodeRepository) Create(ctx context.Context, code *entity.FailureCode) error {
	if code.ID == "" {
		code.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *FailureCodeRepository) FindByID(ctx context.Context, id string) (*entity.FailureCode, error) {
	var code entity.FailureCode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&code).Error; err != nil {
		return nil, notFound(err)
	}
	return &code, nil
}

func (r *FailureCodeRepository) FindByCode(ctx context.Context, code string) (*entity.FailureCode, error) {
	var fc entity.FailureCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&fc).Error; err != nil {
		return nil, notFound(err)
	}
	return &fc, nil
}

// List filters by category; isActive nil lists both.
func (r *FailureCodeRepository) List(ctx context.Context, category string, isActive *bool) ([]entity.FailureCode, error) {
	query := r.db.WithContext(ctx).Model(&entity.FailureCode{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}
	var items []entity.FailureCode
	err := query.Order("code ASC").Find(&items).Error
	return items, err
}

// MaintenanceTypeRepository maintenance type catalog
type MaintenanceTypeRepository struct {
	db *gorm.DB
}

func NewMaintenanceTypeRepository(db *gorm.DB) *MaintenanceTypeRepository {
	return &MaintenanceTypeRepository{db: db}
}

func (r *MaintenanceTypeRepository) Create(ctx context.Context, mt *entity.MaintenanceType) error {
	if mt.ID == "" {
		mt.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(mt).Error
}

func (r *MaintenanceTypeRepository) FindByID(ctx context.Context, id string) (*entity.MaintenanceType, error) {
	var mt entity.MaintenanceType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&mt).Error; err != nil {
		return nil, notFound(err)
	}
	return &mt, nil
}

func (r *MaintenanceTypeRepository) FindByName(ctx context.Context, name string) (*entity.MaintenanceType, error) {
	var mt entity.MaintenanceType
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&mt).Error; err != nil {
		return nil, notFound(err)
	}
	return &mt, nil
}

func (r *MaintenanceTypeRepository) List(ctx context.Context, category string, isActive *bool) ([]entity.MaintenanceType, error) {
	query := r.db.WithContext(ctx).Model(&entity.MaintenanceType{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}
	var items []entity.MaintenanceType
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}
