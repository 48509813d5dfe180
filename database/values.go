/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/tomoncle/pgrepo/types"
)

// normalizeValue turns driver-specific scan results into plain Go values.
// typeName is the database type name when the driver reports raw bytes; it
// is empty for pgx, which decodes by OID.
func normalizeValue(v any, typeName string) any {
	switch val := v.(type) {
	case nil:
		return nil
	case pgtype.Numeric:
		return numericValue(val)
	case *pgtype.Numeric:
		if val == nil {
			return nil
		}
		return numericValue(*val)
	case [16]byte:
		if typeName == "" || isUUIDType(typeName) {
			return uuid.UUID(val).String()
		}
		return val
	case map[string]any:
		// pgx decodes json and jsonb objects into plain maps.
		return types.JsonObject(val)
	case []byte:
		return bytesValue(val, typeName)
	default:
		return v
	}
}

func numericValue(n pgtype.Numeric) any {
	if !n.Valid {
		return nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		// decimal has no representation for these.
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func bytesValue(b []byte, typeName string) any {
	t := strings.ToUpper(typeName)
	switch {
	case t == "NUMERIC" || t == "DECIMAL":
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			return string(b)
		}
		return d
	case t == "JSON" || t == "JSONB":
		if obj, err := types.ParseJsonObject(b); err == nil {
			return obj
		}
		return string(b)
	case isUUIDType(t):
		if id, err := uuid.ParseBytes(b); err == nil {
			return id.String()
		}
		return string(b)
	case isTextType(t):
		return string(b)
	default:
		return b
	}
}

func isUUIDType(t string) bool {
	return strings.EqualFold(t, "UUID")
}

func isTextType(t string) bool {
	switch t {
	case "TEXT", "VARCHAR", "CHAR", "BPCHAR", "NAME", "XML",
		"CITEXT", "INET", "CIDR", "MACADDR", "INTERVAL", "DATE", "TIME", "TIMETZ":
		return true
	}
	return strings.HasPrefix(t, "VARCHAR") || strings.HasPrefix(t, "CHARACTER")
}
