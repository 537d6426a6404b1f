package sfmc

// AssetTypesReference is the static reference document served by the
// sfmc://assets/types resource: common Content Builder asset types, the
// simple operators accepted in query leaves, and example query trees.
const AssetTypesReference = `{
  "common_asset_types": {
    "email": "Email messages and templates",
    "template": "Content templates and layouts",
    "block": "Content blocks and snippets",
    "image": "Image files (JPG, PNG, GIF)",
    "document": "PDF and document files",
    "cloudpage": "Cloud pages and landing pages",
    "folder": "Folder/category containers"
  },
  "search_operators": {
    "eq": "Equals (exact match)",
    "neq": "Not equal to",
    "contains": "Contains substring",
    "like": "Pattern matching with wildcards",
    "gt": "Greater than (numbers/dates)",
    "lt": "Less than (numbers/dates)",
    "gte": "Greater than or equal",
    "lte": "Less than or equal"
  },
  "example_queries": {
    "by_name": {"property": "name", "simpleOperator": "contains", "value": "newsletter"},
    "by_type": {"property": "assetType.name", "simpleOperator": "eq", "value": "email"},
    "by_date": {"property": "modifiedDate", "simpleOperator": "gt", "value": "2024-01-01"},
    "combined": {
      "leftOperand": {"property": "name", "simpleOperator": "contains", "value": "welcome"},
      "logicalOperator": "AND",
      "rightOperand": {"property": "assetType.name", "simpleOperator": "eq", "value": "email"}
    }
  }
}`
