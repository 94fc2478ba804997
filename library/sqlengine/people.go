package sqlengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/library/sqlengine/internal/adapters"
)

const (
	operationBorrowerExists   = "borrower_exists"
	operationGetBorrowerName  = "get_borrower_name"
	operationClassGroupExists = "class_group_exists"
	operationInsertClassGroup = "insert_class_group"
	operationInsertStudent    = "insert_student"
	operationInsertTeacher    = "insert_teacher"
	operationListStudents     = "list_students"
	operationListTeachers     = "list_teachers"
	operationListClassGroups  = "list_class_groups"
)

func borrowerTable(borrower library.BorrowerRef) (string, error) {
	switch borrower.Kind {
	case library.BorrowerStudent:
		return tableStudents, nil
	case library.BorrowerTeacher:
		return tableTeachers, nil
	default:
		return "", library.Validation("unknown borrower kind")
	}
}

func (e *Engine) BorrowerExists(ctx context.Context, borrower library.BorrowerRef) (bool, error) {
	table, err := borrowerTable(borrower)
	if err != nil {
		return false, err
	}

	count, err := e.queryCount(ctx, operationBorrowerExists, e.from(table).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("id").Eq(borrower.ID.String())))

	return count > 0, err
}

func (e *Engine) GetBorrowerName(ctx context.Context, borrower library.BorrowerRef) (string, error) {
	table, err := borrowerTable(borrower)
	if err != nil {
		return "", err
	}

	var name string

	err = e.queryOne(ctx, operationGetBorrowerName, e.from(table).Select("name").
		Where(goqu.C("id").Eq(borrower.ID.String())), func(rows adapters.DBRows) error {
		return rows.Scan(&name)
	})

	return name, err
}

func (e *Engine) ClassGroupExists(ctx context.Context, classGroupID uuid.UUID) (bool, error) {
	count, err := e.queryCount(ctx, operationClassGroupExists, e.from(tableClassGroups).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("id").Eq(classGroupID.String())))

	return count > 0, err
}

func (e *Engine) InsertClassGroup(ctx context.Context, classGroup library.ClassGroup) error {
	_, err := e.exec(ctx, operationInsertClassGroup, e.insertInto(tableClassGroups).Rows(goqu.Record{
		"id":   classGroup.ID.String(),
		"name": classGroup.Name,
	}))

	return err
}

func (e *Engine) InsertStudent(ctx context.Context, student library.Student) error {
	_, err := e.exec(ctx, operationInsertStudent, e.insertInto(tableStudents).Rows(goqu.Record{
		"id":                  student.ID.String(),
		"name":                student.Name,
		"registration_number": student.RegistrationNumber,
		"class_group_id":      nullableID(student.ClassGroupID),
		"created_at":          library.ToTimestamp(student.CreatedAt),
	}))

	return err
}

func (e *Engine) InsertTeacher(ctx context.Context, teacher library.Teacher) error {
	_, err := e.exec(ctx, operationInsertTeacher, e.insertInto(tableTeachers).Rows(goqu.Record{
		"id":         teacher.ID.String(),
		"name":       teacher.Name,
		"created_at": library.ToTimestamp(teacher.CreatedAt),
	}))

	return err
}

func (e *Engine) ListStudents(ctx context.Context) ([]library.Student, error) {
	students := make([]library.Student, 0)

	ds := e.from(tableStudents).
		Select("id", "name", "registration_number", "class_group_id", "created_at").
		Order(goqu.C("name").Asc(), goqu.C("id").Asc())

	err := e.queryRows(ctx, operationListStudents, ds, func(rows adapters.DBRows) error {
		var (
			student      library.Student
			classGroupID uuid.NullUUID
		)

		if scanErr := rows.Scan(&student.ID, &student.Name, &student.RegistrationNumber, &classGroupID,
			&student.CreatedAt); scanErr != nil {
			return scanErr
		}

		student.ClassGroupID = nullID(classGroupID)
		student.CreatedAt = student.CreatedAt.UTC()
		students = append(students, student)

		return nil
	})

	return students, err
}

func (e *Engine) ListTeachers(ctx context.Context) ([]library.Teacher, error) {
	teachers := make([]library.Teacher, 0)

	ds := e.from(tableTeachers).Select("id", "name", "created_at").
		Order(goqu.C("name").Asc(), goqu.C("id").Asc())

	err := e.queryRows(ctx, operationListTeachers, ds, func(rows adapters.DBRows) error {
		var teacher library.Teacher
		if scanErr := rows.Scan(&teacher.ID, &teacher.Name, &teacher.CreatedAt); scanErr != nil {
			return scanErr
		}

		teacher.CreatedAt = teacher.CreatedAt.UTC()
		teachers = append(teachers, teacher)

		return nil
	})

	return teachers, err
}

func (e *Engine) ListClassGroups(ctx context.Context) ([]library.ClassGroup, error) {
	classGroups := make([]library.ClassGroup, 0)

	ds := e.from(tableClassGroups).Select("id", "name").Order(goqu.C("name").Asc())

	err := e.queryRows(ctx, operationListClassGroups, ds, func(rows adapters.DBRows) error {
		var classGroup library.ClassGroup
		if scanErr := rows.Scan(&classGroup.ID, &classGroup.Name); scanErr != nil {
			return scanErr
		}

		classGroups = append(classGroups, classGroup)

		return nil
	})

	return classGroups, err
}
