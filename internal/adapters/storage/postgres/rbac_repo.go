package postgres

import (
	"context"
	"database/sql"

	"finca-manager/internal/domain/rbac"
)

type RBACRepo struct {
	db *sql.DB
}

func NewRBACRepo(db *sql.DB) *RBACRepo {
	return &RBACRepo{db: db}
}

func (r *RBACRepo) CreateModule(ctx context.Context, m rbac.Module) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rbac_modules (id, name, description, created_at)
		VALUES ($1,$2,$3,$4)
	`, m.ID, m.Name, m.Description, m.CreatedAt)
	if isUniqueViolation(err) {
		return rbac.ErrAlreadyExists
	}
	return err
}

func (r *RBACRepo) GetModuleByID(ctx context.Context, id string) (rbac.Module, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at FROM rbac_modules WHERE id = $1
	`, id)
	var m rbac.Module
	if err := row.Scan(&m.ID, &m.Name, &m.Description, &m.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return rbac.Module{}, rbac.ErrNotFound
		}
		return rbac.Module{}, err
	}
	return m, nil
}

func (r *RBACRepo) ListModules(ctx context.Context) ([]rbac.Module, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_at FROM rbac_modules ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]rbac.Module, 0)
	for rows.Next() {
		var m rbac.Module
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *RBACRepo) DeleteModule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rbac_modules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return rbac.ErrNotFound
	}
	return nil
}

func (r *RBACRepo) CreatePermission(ctx context.Context, p rbac.Permission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rbac_permissions (id, name, description, module_id, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, p.ID, p.Name, p.Description, p.ModuleID, p.CreatedAt)
	if isUniqueViolation(err) {
		return rbac.ErrAlreadyExists
	}
	return err
}

func (r *RBACRepo) GetPermissionByID(ctx context.Context, id string) (rbac.Permission, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, module_id, created_at FROM rbac_permissions WHERE id = $1
	`, id)
	var p rbac.Permission
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.ModuleID, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return rbac.Permission{}, rbac.ErrNotFound
		}
		return rbac.Permission{}, err
	}
	return p, nil
}

func (r *RBACRepo) ListPermissions(ctx context.Context, moduleID string) ([]rbac.Permission, error) {
	query := `SELECT id, name, description, module_id, created_at FROM rbac_permissions`
	args := []any{}
	if moduleID != "" {
		query += ` WHERE module_id = $1`
		args = append(args, moduleID)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPermissions(rows)
}

func (r *RBACRepo) DeletePermission(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rbac_role_permissions WHERE permission_id = $1`, id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM rbac_permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return rbac.ErrNotFound
	}
	return nil
}

func (r *RBACRepo) CreateRole(ctx context.Context, role rbac.Role) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rbac_roles (id, name, description, created_at)
		VALUES ($1,$2,$3,$4)
	`, role.ID, role.Name, role.Description, role.CreatedAt)
	if isUniqueViolation(err) {
		return rbac.ErrAlreadyExists
	}
	return err
}

func (r *RBACRepo) GetRoleByID(ctx context.Context, id string) (rbac.Role, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at FROM rbac_roles WHERE id = $1
	`, id)
	var role rbac.Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return rbac.Role{}, rbac.ErrNotFound
		}
		return rbac.Role{}, err
	}
	return role, nil
}

func (r *RBACRepo) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_at FROM rbac_roles ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRoles(rows)
}

func (r *RBACRepo) DeleteRole(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rbac_role_permissions WHERE role_id = $1`, id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rbac_user_roles WHERE role_id = $1`, id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM rbac_roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return rbac.ErrNotFound
	}
	return nil
}

func (r *RBACRepo) AssignPermission(ctx context.Context, rp rbac.RolePermission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rbac_role_permissions (role_id, permission_id, assigned_at)
		VALUES ($1,$2,$3)
	`, rp.RoleID, rp.PermissionID, rp.AssignedAt)
	if isUniqueViolation(err) {
		return rbac.ErrAlreadyExists
	}
	return err
}

func (r *RBACRepo) RevokePermission(ctx context.Context, roleID, permissionID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM rbac_role_permissions WHERE role_id = $1 AND permission_id = $2
	`, roleID, permissionID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return rbac.ErrNotFound
	}
	return nil
}

func (r *RBACRepo) ListRolePermissions(ctx context.Context, roleID string) ([]rbac.Permission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.description, p.module_id, p.created_at
		FROM rbac_permissions p
		JOIN rbac_role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name ASC
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPermissions(rows)
}

func (r *RBACRepo) AssignRole(ctx context.Context, ur rbac.UserRole) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rbac_user_roles (user_id, role_id, assigned_at)
		VALUES ($1,$2,$3)
	`, ur.UserID, ur.RoleID, ur.AssignedAt)
	if isUniqueViolation(err) {
		return rbac.ErrAlreadyExists
	}
	return err
}

func (r *RBACRepo) RevokeRole(ctx context.Context, userID, roleID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM rbac_user_roles WHERE user_id = $1 AND role_id = $2
	`, userID, roleID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return rbac.ErrNotFound
	}
	return nil
}

func (r *RBACRepo) ListUserRoles(ctx context.Context, userID string) ([]rbac.Role, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ro.id, ro.name, ro.description, ro.created_at
		FROM rbac_roles ro
		JOIN rbac_user_roles ur ON ur.role_id = ro.id
		WHERE ur.user_id = $1
		ORDER BY ro.name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRoles(rows)
}

func (r *RBACRepo) UserHasPermission(ctx context.Context, userID, permissionName string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM rbac_user_roles ur
			JOIN rbac_role_permissions rp ON rp.role_id = ur.role_id
			JOIN rbac_permissions p ON p.id = rp.permission_id
			WHERE ur.user_id = $1 AND p.name = $2
		)
	`, userID, permissionName)

	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func scanPermissions(rows *sql.Rows) ([]rbac.Permission, error) {
	out := make([]rbac.Permission, 0)
	for rows.Next() {
		var p rbac.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ModuleID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanRoles(rows *sql.Rows) ([]rbac.Role, error) {
	out := make([]rbac.Role, 0)
	for rows.Next() {
		var role rbac.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
